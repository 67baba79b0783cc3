package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// EnvParser provides functionality to parse configuration from environment
// variables. It handles type conversions, validation, and error reporting
// for all supported variables in the BACKPORT_* namespace.
type EnvParser struct {
	// getEnv allows injection of environment variable retrieval for testing
	getEnv func(string) string
}

// NewEnvParser creates a new environment variable parser.
func NewEnvParser() *EnvParser {
	return &EnvParser{
		getEnv: os.Getenv,
	}
}

// NewEnvParserWithGetter creates a new environment variable parser with custom getter.
// This is primarily used for testing with mock environment variables.
func NewEnvParserWithGetter(getter func(string) string) *EnvParser {
	return &EnvParser{
		getEnv: getter,
	}
}

// ParseEnv parses all BACKPORT environment variables and returns a populated Config.
// It returns an error if any environment variables contain invalid values.
func (p *EnvParser) ParseEnv() (*Config, error) {
	var errs []string
	config := New()

	p.parseWorkspace(config)
	p.parseGit(config)
	p.parseFleet(config)

	if err := p.parsePipeline(config); err != nil {
		errs = append(errs, err.Error())
	}
	if err := p.parseLogging(config); err != nil {
		errs = append(errs, err.Error())
	}
	if err := p.parseExecution(config); err != nil {
		errs = append(errs, err.Error())
	}

	if dir := p.getEnv(EnvStateDir); dir != "" {
		config.State.Dir = dir
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("environment variable parsing errors: %s", strings.Join(errs, "; "))
	}

	return config, nil
}

// parseWorkspace parses workspace-related environment variables
func (p *EnvParser) parseWorkspace(config *Config) {
	if path := p.getEnv(EnvWorkspacePath); path != "" {
		config.Workspace.Path = path
	}

	if mainline := p.getEnv(EnvMainline); mainline != "" {
		config.Workspace.Mainline = mainline
	}

	if reposFile := p.getEnv(EnvReposFile); reposFile != "" {
		config.Workspace.ReposFile = reposFile
	}
}

// parseGit parses git-related environment variables
func (p *EnvParser) parseGit(config *Config) {
	if prefix := p.getEnv(EnvDepBranchPrefix); prefix != "" {
		config.Git.DependencyBranchPrefix = prefix
	}
}

// parseFleet parses fleet discovery environment variables
func (p *EnvParser) parseFleet(config *Config) {
	if source := p.getEnv(EnvFleetSource); source != "" {
		config.Fleet.Source = source
	}

	if token := p.getEnv(EnvGitHubToken); token != "" {
		config.Fleet.GitHub.Token = token
	}

	if endpoint := p.getEnv(EnvGitHubEndpoint); endpoint != "" {
		config.Fleet.GitHub.Endpoint = endpoint
	}

	if org := p.getEnv(EnvGitHubOrg); org != "" {
		config.Fleet.GitHub.Organization = org
	}
}

// parsePipeline parses pipeline-related environment variables
func (p *EnvParser) parsePipeline(config *Config) error {
	if cmd := p.getEnv(EnvRefreshCommand); cmd != "" {
		config.Pipeline.Refresh = cmd
	}

	if cmd := p.getEnv(EnvBuildCommand); cmd != "" {
		config.Pipeline.Build = cmd
	}

	if cmd := p.getEnv(EnvDeployCommand); cmd != "" {
		config.Pipeline.Deploy = cmd
	}

	if cmd := p.getEnv(EnvDescriptorCommand); cmd != "" {
		config.Pipeline.Descriptor = cmd
	}

	if timeoutStr := p.getEnv(EnvPipelineTimeout); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", EnvPipelineTimeout, err)
		}
		config.Pipeline.Timeout = timeout
	}

	return nil
}

// parseLogging parses logging-related environment variables
func (p *EnvParser) parseLogging(config *Config) error {
	var errs []string

	if level := p.getEnv(EnvLogLevel); level != "" {
		if !p.isValidLogLevel(level) {
			errs = append(errs, fmt.Sprintf("invalid %s: must be one of [debug, info, warn, error], got %q", EnvLogLevel, level))
		} else {
			config.Logging.Level = level
		}
	}

	if format := p.getEnv(EnvLogFormat); format != "" {
		if !p.isValidLogFormat(format) {
			errs = append(errs, fmt.Sprintf("invalid %s: must be one of [text, json], got %q", EnvLogFormat, format))
		} else {
			config.Logging.Format = format
		}
	}

	if verboseStr := p.getEnv(EnvVerbose); verboseStr != "" {
		verbose, err := p.parseBool(verboseStr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", EnvVerbose, err))
		} else {
			config.setLoggingVerbose(verbose)
		}
	}

	if quietStr := p.getEnv(EnvQuiet); quietStr != "" {
		quiet, err := p.parseBool(quietStr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", EnvQuiet, err))
		} else {
			config.setLoggingQuiet(quiet)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("logging configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// parseExecution parses execution-related environment variables
func (p *EnvParser) parseExecution(config *Config) error {
	if dryRunStr := p.getEnv(EnvDryRun); dryRunStr != "" {
		dryRun, err := p.parseBool(dryRunStr)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", EnvDryRun, err)
		}
		config.setDryRun(dryRun)
	}

	return nil
}

// parseBool parses a boolean value from a string, supporting multiple formats
func (p *EnvParser) parseBool(value string) (bool, error) {
	lower := strings.ToLower(strings.TrimSpace(value))

	switch lower {
	case "true", "1", "yes", "on", "enabled":
		return true, nil
	case "false", "0", "no", "off", "disabled", "":
		return false, nil
	default:
		return false, fmt.Errorf("must be one of [true, false, 1, 0, yes, no, on, off, enabled, disabled], got %q", value)
	}
}

// isValidLogLevel checks if the given log level is valid
func (p *EnvParser) isValidLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// isValidLogFormat checks if the given log format is valid
func (p *EnvParser) isValidLogFormat(format string) bool {
	switch strings.ToLower(format) {
	case "text", "json":
		return true
	default:
		return false
	}
}

// FromEnv is a convenience function that creates a new parser and parses the environment.
func FromEnv() (*Config, error) {
	parser := NewEnvParser()
	return parser.ParseEnv()
}
