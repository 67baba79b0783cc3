package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultMainline is the branch working copies rest on between runs.
	DefaultMainline = "master"

	// DefaultDependencyBranchPrefix forms dependency branch names, deps/1.2.
	DefaultDependencyBranchPrefix = "deps/"

	// DefaultFleetSource discovers release branches from local checkouts.
	DefaultFleetSource = "local"

	// DefaultPipelineTimeout bounds each build or deploy command.
	DefaultPipelineTimeout = 30 * time.Minute
)

// ApplyDefaults applies sensible defaults to the configuration.
// It should be called after parsing but before validation.
func ApplyDefaults(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: cannot apply defaults to nil config")
	}

	if cfg.Workspace.Path == "" {
		path, err := defaultWorkspacePath()
		if err != nil {
			return err
		}
		cfg.Workspace.Path = path
	}

	if cfg.Workspace.Mainline == "" {
		cfg.Workspace.Mainline = DefaultMainline
	}

	if cfg.Git.DependencyBranchPrefix == "" {
		cfg.Git.DependencyBranchPrefix = DefaultDependencyBranchPrefix
	}

	if cfg.Fleet.Source == "" {
		cfg.Fleet.Source = DefaultFleetSource
	}

	if cfg.Pipeline.Timeout <= 0 {
		cfg.Pipeline.Timeout = DefaultPipelineTimeout
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	// Verbose and quiet collapse into the effective level; verbose wins.
	if cfg.Logging.Verbose {
		cfg.Logging.Level = "debug"
	} else if cfg.Logging.Quiet {
		cfg.Logging.Level = "warn"
	}

	return nil
}

// defaultWorkspacePath resolves the fleet checkout directory.
func defaultWorkspacePath() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "backport"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "backport"), nil
}
