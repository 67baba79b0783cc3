package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation failure.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates multiple validation failures.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("config validation errors:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate inspects the configuration for missing or invalid fields.
// It applies all validation rules and returns aggregated errors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return &ValidationError{
			Field:   "config",
			Value:   nil,
			Message: "configuration cannot be nil",
		}
	}

	var errors ValidationErrors

	errors = append(errors, validateWorkspace(&cfg.Workspace)...)
	errors = append(errors, validateFleet(&cfg.Fleet)...)
	errors = append(errors, validateLogging(&cfg.Logging)...)

	if len(errors) > 0 {
		return errors
	}

	return nil
}

func validateWorkspace(ws *WorkspaceConfig) ValidationErrors {
	var errors ValidationErrors

	if strings.TrimSpace(ws.Path) == "" {
		errors = append(errors, ValidationError{
			Field:   "workspace.path",
			Value:   ws.Path,
			Message: "workspace path is required",
		})
	}

	if strings.TrimSpace(ws.Mainline) == "" {
		errors = append(errors, ValidationError{
			Field:   "workspace.mainline",
			Value:   ws.Mainline,
			Message: "mainline branch is required",
		})
	}

	return errors
}

func validateFleet(fleet *FleetConfig) ValidationErrors {
	var errors ValidationErrors

	switch fleet.Source {
	case "local", "github":
	default:
		errors = append(errors, ValidationError{
			Field:   "fleet.source",
			Value:   fleet.Source,
			Message: fmt.Sprintf("must be one of [local, github], got %q", fleet.Source),
		})
	}

	if fleet.Source == "github" {
		if strings.TrimSpace(fleet.GitHub.Organization) == "" {
			errors = append(errors, ValidationError{
				Field:   "fleet.github.organization",
				Value:   fleet.GitHub.Organization,
				Message: "organization is required for github discovery",
			})
		}
	}

	if endpoint := fleet.GitHub.Endpoint; endpoint != "" {
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			errors = append(errors, ValidationError{
				Field:   "fleet.github.endpoint",
				Value:   endpoint,
				Message: fmt.Sprintf("invalid endpoint URL: %v", err),
			})
		}
	}

	return errors
}

func validateLogging(logging *LoggingConfig) ValidationErrors {
	var errors ValidationErrors

	switch strings.ToLower(logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   logging.Level,
			Message: fmt.Sprintf("must be one of [debug, info, warn, error], got %q", logging.Level),
		})
	}

	switch strings.ToLower(logging.Format) {
	case "text", "json":
	default:
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Value:   logging.Format,
			Message: fmt.Sprintf("must be one of [text, json], got %q", logging.Format),
		})
	}

	if logging.Verbose && logging.Quiet {
		errors = append(errors, ValidationError{
			Field:   "logging",
			Value:   nil,
			Message: "verbose and quiet are mutually exclusive",
		})
	}

	return errors
}
