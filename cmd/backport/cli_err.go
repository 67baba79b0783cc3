package main

import (
	"errors"
	"fmt"

	"github.com/goliatone/backport/internal/buildsrv"
	"github.com/goliatone/backport/internal/campaign"
	"github.com/goliatone/backport/internal/fleet"
	"github.com/goliatone/backport/internal/gitops"
	"github.com/goliatone/backport/internal/store"
)

// Exit codes for different error types
const (
	ExitSuccess         = 0 // Successful execution
	ExitGenericError    = 1 // Generic error
	ExitConfigError     = 2 // Configuration error
	ExitValidationError = 3 // Input validation error
	ExitStateError      = 4 // Campaign state error (corrupt document, lock held)
	ExitGitError        = 5 // Git operation error
	ExitFleetError      = 6 // Release branch discovery error
	ExitPipelineError   = 7 // Build or deploy pipeline error
)

// CLIError carries a message and process exit code for structured error handling.
type CLIError struct {
	Code    int
	Message string
	Cause   error
}

func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CLIError) ExitCode() int {
	return e.Code
}

func (e *CLIError) Unwrap() error {
	return e.Cause
}

// Error creation helpers for structured error handling

func newConfigError(message string, cause error) *CLIError {
	return &CLIError{Code: ExitConfigError, Message: message, Cause: cause}
}

func newValidationError(message string, cause error) *CLIError {
	return &CLIError{Code: ExitValidationError, Message: message, Cause: cause}
}

func newStateError(message string, cause error) *CLIError {
	return &CLIError{Code: ExitStateError, Message: message, Cause: cause}
}

// classifyError maps a campaign operation failure to the exit code of the
// collaborator that caused it.
func classifyError(message string, err error) *CLIError {
	switch {
	case err == nil:
		return nil
	case campaign.IsValidationError(err):
		return &CLIError{Code: ExitValidationError, Message: message, Cause: err}
	case errors.Is(err, store.ErrLocked),
		errors.Is(err, store.ErrCorrupt),
		errors.Is(err, store.ErrNotFound):
		return &CLIError{Code: ExitStateError, Message: message, Cause: err}
	case gitops.IsOperationError(err),
		errors.Is(err, gitops.ErrCherryPickConflict):
		return &CLIError{Code: ExitGitError, Message: message, Cause: err}
	case errors.Is(err, fleet.ErrBranchNotFound),
		errors.Is(err, fleet.ErrNoDescriptor):
		return &CLIError{Code: ExitFleetError, Message: message, Cause: err}
	case buildsrv.IsPipelineError(err):
		return &CLIError{Code: ExitPipelineError, Message: message, Cause: err}
	default:
		return &CLIError{Code: ExitGenericError, Message: message, Cause: err}
	}
}
