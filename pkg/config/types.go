package config

import "time"

// Config represents the complete configuration for backport operations.
// It aggregates workspace, git, fleet, pipeline, logging, and state
// management settings.
type Config struct {
	// Workspace contains the fleet checkout directory settings
	Workspace WorkspaceConfig `json:"workspace" yaml:"workspace"`

	// Git contains git-level settings such as branch naming
	Git GitConfig `json:"git" yaml:"git"`

	// Fleet contains release branch discovery settings
	Fleet FleetConfig `json:"fleet" yaml:"fleet"`

	// Pipeline contains the build and deploy command settings
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline"`

	// Logging contains logging level and output configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// State contains campaign state persistence settings
	State StateConfig `json:"state" yaml:"state"`

	// DryRun enables preview mode without git, pipeline or state writes.
	// Typically specified via command-line flags.
	DryRun bool `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`

	setFlags boolFlags `json:"-" yaml:"-"`
}

type boolFlags struct {
	dryRun         bool
	loggingVerbose bool
	loggingQuiet   bool
}

// WorkspaceConfig locates the fleet working copies. Every repository named
// in the campaign must be checked out directly under Path.
type WorkspaceConfig struct {
	// Path is the directory containing one working copy per repository.
	// Default: $XDG_CACHE_HOME/backport or ~/.cache/backport
	Path string `json:"path" yaml:"path" validate:"required"`

	// Mainline is the branch working copies are restored to after use.
	// Default: master
	Mainline string `json:"mainline" yaml:"mainline"`

	// ReposFile is an optional file listing the active repositories, one
	// per line. Required for local fleet discovery.
	ReposFile string `json:"repos_file,omitempty" yaml:"repos_file,omitempty"`
}

// GitConfig contains git-level conventions.
type GitConfig struct {
	// DependencyBranchPrefix is prepended to a release branch name to form
	// its durable dependency branch, e.g. "deps/" yields deps/1.2.
	// Default: deps/
	DependencyBranchPrefix string `json:"dependency_branch_prefix" yaml:"dependency_branch_prefix"`
}

// FleetConfig controls how maintained release branches are discovered.
type FleetConfig struct {
	// Source selects the discovery backend.
	// Valid values: local, github
	// Default: local
	Source string `json:"source" yaml:"source" validate:"oneof=local github"`

	// GitHub contains GitHub API settings, used when Source is "github".
	GitHub GitHubConfig `json:"github" yaml:"github"`
}

// GitHubConfig contains GitHub API integration settings including
// authentication tokens and API endpoint configuration.
type GitHubConfig struct {
	// Token is the GitHub authentication token for API access.
	// Should be loaded from environment variables or secure files.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// Endpoint is the GitHub API endpoint URL.
	// Default: https://api.github.com for GitHub.com
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// Organization owns the fleet repositories.
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`
}

// PipelineConfig names the fleet's build and deploy entry points. Each is a
// command run inside the repository working copy.
type PipelineConfig struct {
	// Refresh re-syncs package and build dependencies. Optional.
	Refresh string `json:"refresh,omitempty" yaml:"refresh,omitempty"`

	// Build produces deployable artifacts for the checked-out branch.
	Build string `json:"build,omitempty" yaml:"build,omitempty"`

	// Deploy promotes artifacts and prints the assigned version last.
	Deploy string `json:"deploy,omitempty" yaml:"deploy,omitempty"`

	// Descriptor publishes an updated dependency descriptor document.
	Descriptor string `json:"descriptor,omitempty" yaml:"descriptor,omitempty"`

	// Timeout bounds each pipeline command.
	// Default: 30 minutes
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// LoggingConfig manages logging level, output format, and
// structured logging configuration.
type LoggingConfig struct {
	// Level controls the logging verbosity level.
	// Valid values: debug, info, warn, error
	// Default: info
	Level string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`

	// Format controls the log output format.
	// Valid values: text, json
	// Default: text
	Format string `json:"format" yaml:"format" validate:"oneof=text json"`

	// Verbose enables verbose logging output.
	// Equivalent to setting Level to "debug"
	Verbose bool `json:"verbose" yaml:"verbose"`

	// Quiet suppresses non-essential output.
	// Equivalent to setting Level to "warn"
	Quiet bool `json:"quiet" yaml:"quiet"`
}

// StateConfig manages campaign state persistence settings.
type StateConfig struct {
	// Dir is the directory holding the campaign document.
	// Default: $XDG_STATE_HOME/backport or ~/.local/state/backport
	Dir string `json:"dir" yaml:"dir"`
}

// Environment variable mapping constants for configuration parsing
const (
	// Workspace environment variables
	EnvWorkspacePath = "BACKPORT_WORKSPACE"
	EnvMainline      = "BACKPORT_MAINLINE"
	EnvReposFile     = "BACKPORT_REPOS_FILE"

	// Git environment variables
	EnvDepBranchPrefix = "BACKPORT_DEP_BRANCH_PREFIX"

	// Fleet environment variables
	EnvFleetSource    = "BACKPORT_FLEET_SOURCE"
	EnvGitHubToken    = "BACKPORT_GITHUB_TOKEN"
	EnvGitHubEndpoint = "BACKPORT_GITHUB_ENDPOINT"
	EnvGitHubOrg      = "BACKPORT_GITHUB_ORG"

	// Pipeline environment variables
	EnvRefreshCommand    = "BACKPORT_REFRESH_CMD"
	EnvBuildCommand      = "BACKPORT_BUILD_CMD"
	EnvDeployCommand     = "BACKPORT_DEPLOY_CMD"
	EnvDescriptorCommand = "BACKPORT_DESCRIPTOR_CMD"
	EnvPipelineTimeout   = "BACKPORT_PIPELINE_TIMEOUT"

	// Logging environment variables
	EnvLogLevel  = "BACKPORT_LOG_LEVEL"
	EnvLogFormat = "BACKPORT_LOG_FORMAT"
	EnvVerbose   = "BACKPORT_VERBOSE"
	EnvQuiet     = "BACKPORT_QUIET"

	// State environment variables
	EnvStateDir = "BACKPORT_STATE_DIR"

	// Execution environment variables
	EnvDryRun = "BACKPORT_DRY_RUN"
)

// New returns a Config populated with safe zero values.
func New() *Config {
	return &Config{}
}
