package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// FlagConfig represents flag parsing configuration and results
type FlagConfig struct {
	// Command-line flag values
	Workspace  string
	Mainline   string
	ReposFile  string
	DryRun     bool
	Verbose    bool
	Quiet      bool
	ConfigFile string

	// Git flags
	DepBranchPrefix string

	// Fleet discovery flags
	FleetSource    string
	GitHubToken    string
	GitHubEndpoint string
	GitHubOrg      string

	// Pipeline flags
	RefreshCommand    string
	BuildCommand      string
	DeployCommand     string
	DescriptorCommand string
	PipelineTimeout   time.Duration

	// State flags
	StateDir string

	// Logging flags
	LogLevel  string
	LogFormat string

	timeoutSet   bool
	dryRunSet    bool
	verboseSet   bool
	quietSet     bool
	logLevelSet  bool
	logFormatSet bool
}

// AddFlags adds all configuration flags to the provided cobra command.
// This function defines all available command-line flags with their
// default values and help text.
func AddFlags(cmd *cobra.Command) *FlagConfig {
	fc := &FlagConfig{}
	fc.register(cmd.PersistentFlags())

	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	cmd.MarkFlagsMutuallyExclusive("verbose", "log-level")
	cmd.MarkFlagsMutuallyExclusive("quiet", "log-level")

	return fc
}

// register defines every flag on the set. Persistent flags are inherited by
// subcommands.
func (fc *FlagConfig) register(flags *pflag.FlagSet) {
	// Workspace flags
	flags.StringVarP(&fc.Workspace, "workspace", "w", "",
		"Directory containing the fleet working copies (default: $XDG_CACHE_HOME/backport)")
	flags.StringVar(&fc.Mainline, "mainline", "",
		"Branch working copies are restored to after use (default: master)")
	flags.StringVar(&fc.ReposFile, "repos-file", "",
		"File listing the active repositories, one per line")
	flags.StringVarP(&fc.ConfigFile, "config", "c", "",
		"Configuration file path")

	// Execution control flags
	flags.BoolVarP(&fc.DryRun, "dry-run", "n", false,
		"Preview mode without git, pipeline or state writes")

	// Git flags
	flags.StringVar(&fc.DepBranchPrefix, "dep-branch-prefix", "",
		"Prefix of durable dependency branches (default: deps/)")

	// Fleet discovery flags
	flags.StringVar(&fc.FleetSource, "fleet-source", "",
		"Release branch discovery backend (local, github)")
	flags.StringVar(&fc.GitHubToken, "github-token", "",
		"GitHub authentication token")
	flags.StringVar(&fc.GitHubEndpoint, "github-endpoint", "",
		"GitHub API endpoint URL")
	flags.StringVar(&fc.GitHubOrg, "github-org", "",
		"GitHub organization owning the fleet")

	// Pipeline flags
	flags.StringVar(&fc.RefreshCommand, "refresh-cmd", "",
		"Command that re-syncs a working copy's build dependencies")
	flags.StringVar(&fc.BuildCommand, "build-cmd", "",
		"Command that builds the checked-out branch's artifacts")
	flags.StringVar(&fc.DeployCommand, "deploy-cmd", "",
		"Command that deploys artifacts and prints the version last")
	flags.StringVar(&fc.DescriptorCommand, "descriptor-cmd", "",
		"Command that publishes the dependency descriptor")
	flags.DurationVar(&fc.PipelineTimeout, "pipeline-timeout", 0,
		"Timeout for each pipeline command (default: 30m)")

	// Logging control flags
	flags.BoolVarP(&fc.Verbose, "verbose", "v", false,
		"Verbose logging output (equivalent to --log-level=debug)")
	flags.BoolVarP(&fc.Quiet, "quiet", "q", false,
		"Suppress non-essential output (equivalent to --log-level=warn)")
	flags.StringVar(&fc.LogLevel, "log-level", "",
		"Logging level (debug, info, warn, error)")
	flags.StringVar(&fc.LogFormat, "log-format", "",
		"Log output format (text, json)")

	// State management flags
	flags.StringVar(&fc.StateDir, "state-dir", "",
		"Campaign state directory")
}

// Capture records which flags the operator actually set. Call after flag
// parsing, before converting to a Config.
func (fc *FlagConfig) Capture(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	fc.timeoutSet = flags.Changed("pipeline-timeout")
	fc.dryRunSet = flags.Changed("dry-run")
	fc.verboseSet = flags.Changed("verbose")
	fc.quietSet = flags.Changed("quiet")
	fc.logLevelSet = flags.Changed("log-level")
	fc.logFormatSet = flags.Changed("log-format")
}

// ValidateFlags validates flag combinations and values.
// Returns an error if any validation rules are violated.
func (fc *FlagConfig) ValidateFlags() error {
	var errors []string

	if fc.timeoutSet && fc.PipelineTimeout <= 0 {
		errors = append(errors, "pipeline-timeout must be positive")
	}

	if fc.logLevelSet {
		switch fc.LogLevel {
		case "debug", "info", "warn", "error":
		default:
			errors = append(errors, "log-level must be one of: debug, info, warn, error")
		}
	}

	if fc.logFormatSet {
		switch fc.LogFormat {
		case "text", "json":
		default:
			errors = append(errors, "log-format must be one of: text, json")
		}
	}

	if fc.FleetSource != "" {
		switch fc.FleetSource {
		case "local", "github":
		default:
			errors = append(errors, "fleet-source must be one of: local, github")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("flag validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// ToConfig converts flag configuration to a Config struct.
// It emits only the values explicitly set via flags; callers should merge
// this result with other configuration sources to honour precedence rules.
func (fc *FlagConfig) ToConfig() (*Config, error) {
	config := New()

	if fc.Workspace != "" {
		config.Workspace.Path = fc.Workspace
	}
	if fc.Mainline != "" {
		config.Workspace.Mainline = fc.Mainline
	}
	if fc.ReposFile != "" {
		config.Workspace.ReposFile = fc.ReposFile
	}

	if fc.DepBranchPrefix != "" {
		config.Git.DependencyBranchPrefix = fc.DepBranchPrefix
	}

	if fc.FleetSource != "" {
		config.Fleet.Source = fc.FleetSource
	}
	if fc.GitHubToken != "" {
		config.Fleet.GitHub.Token = fc.GitHubToken
	}
	if fc.GitHubEndpoint != "" {
		config.Fleet.GitHub.Endpoint = fc.GitHubEndpoint
	}
	if fc.GitHubOrg != "" {
		config.Fleet.GitHub.Organization = fc.GitHubOrg
	}

	if fc.RefreshCommand != "" {
		config.Pipeline.Refresh = fc.RefreshCommand
	}
	if fc.BuildCommand != "" {
		config.Pipeline.Build = fc.BuildCommand
	}
	if fc.DeployCommand != "" {
		config.Pipeline.Deploy = fc.DeployCommand
	}
	if fc.DescriptorCommand != "" {
		config.Pipeline.Descriptor = fc.DescriptorCommand
	}
	if fc.timeoutSet {
		config.Pipeline.Timeout = fc.PipelineTimeout
	}

	if fc.dryRunSet {
		config.setDryRun(fc.DryRun)
	}

	if fc.verboseSet {
		config.setLoggingVerbose(fc.Verbose)
		if fc.Verbose {
			config.Logging.Level = "debug"
		}
	}
	if fc.quietSet {
		config.setLoggingQuiet(fc.Quiet)
		if fc.Quiet {
			config.Logging.Level = "warn"
		}
	}
	if fc.logLevelSet && fc.LogLevel != "" {
		config.Logging.Level = fc.LogLevel
	}
	if fc.logFormatSet && fc.LogFormat != "" {
		config.Logging.Format = fc.LogFormat
	}

	if fc.StateDir != "" {
		config.State.Dir = fc.StateDir
	}

	return config, nil
}
