package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/backport/pkg/config"
	"github.com/goliatone/backport/pkg/di"
)

// Global variables for CLI state
var (
	container di.Container
	cfg       *config.Config
	flagCfg   *config.FlagConfig
)

// newRootCommand creates the root cobra command with all subcommands
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backport",
		Short: "Backport tracks fixes across the release branches of a repository fleet",
		Long: `Backport runs maintenance campaigns over a fleet of simulation repositories:
it tracks patches, cherry-picks them onto the dependency lines of historical
release branches, publishes the resulting dependency branches, and promotes
rebuilt branches through release-candidate and production deploys.

Campaign state is a single JSON document that survives failures: any batch
that aborts saves its progress first and can be resumed by re-running the
same command.

Configuration Sources (in precedence order):
  1. Command-line flags (highest priority)
  2. Environment variables (BACKPORT_*)
  3. Configuration file (--config)
  4. Built-in defaults (lowest priority)

Exit Codes:
  0 - Success
  1 - Generic error
  2 - Configuration error (missing config, invalid values)
  3 - Validation error (unknown patch, duplicate SHA, bad arguments)
  4 - Campaign state error (corrupt document, lock held)
  5 - Git operation error (checkout, push, unresolvable revision)
  6 - Release branch discovery error
  7 - Build or deploy pipeline error

Examples:
  backport patch create sim-a "fix crash in collision solver"
  backport patch add-sha sim-a deadbeef
  backport need add sim-a --all
  backport apply
  backport update
  backport deploy rc`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeContainer(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			cleanupContainer()
		},
	}

	// Override Cobra's default error handling to use structured errors
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return newValidationError("invalid flag usage", err)
	})

	// Add configuration flags
	flagCfg = config.AddFlags(cmd)

	// Add subcommands
	cmd.AddCommand(
		newPatchCommand(),
		newNeedCommand(),
		newApplyCommand(),
		newUpdateCommand(),
		newDeployCommand(),
		newListCommand(),
		newLinksCommand(),
		newStatusCommand(),
		newResetCommand(),
		newVersionCommand(),
	)

	return cmd
}

// initializeContainer sets up the dependency injection container with configuration
func initializeContainer(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}

	flagCfg.Capture(cmd.Root())
	if err := flagCfg.ValidateFlags(); err != nil {
		return newValidationError("invalid flag usage", err)
	}

	builder := config.NewBuilder().
		FromFile(flagCfg.ConfigFile). // Explicit config file, if any
		FromEnv().                    // Load from environment
		FromFlags(flagCfg)            // Load from command flags (highest precedence)

	var err error
	cfg, err = builder.Build()
	if err != nil {
		return newConfigError("failed to build configuration", err)
	}

	container, err = di.New(di.WithConfig(cfg))
	if err != nil {
		return newConfigError("failed to initialize dependencies", err)
	}

	return nil
}

// cleanupContainer performs cleanup of container resources
func cleanupContainer() {
	if container != nil {
		if err := container.Close(); err != nil {
			if logger := container.Logger(); logger != nil {
				logger.Warn("Container cleanup errors", "error", err)
			} else {
				fmt.Fprintf(os.Stderr, "backport: container cleanup warning: %v\n", err)
			}
		}
	}
}
