package buildsrv

import (
	"context"
	"errors"
	"fmt"
)

// Client is the contract with the fleet's build pipeline and deployment
// machinery. The campaign engine treats every operation as an atomic call
// with a success or failure outcome; retries are the operator's decision.
type Client interface {
	// Refresh re-syncs a working copy's package and build dependencies
	// before propagation work starts.
	Refresh(ctx context.Context, repo string) error
	// Build produces deployable artifacts for the branch currently checked
	// out in repo's working copy, one per brand.
	Build(ctx context.Context, repo string, brands []string) error
	// Deploy promotes the branch's artifacts and returns the version
	// identifier assigned by the deployment machinery.
	Deploy(ctx context.Context, repo, branch string, brands []string, message string) (string, error)
	// WriteDescriptor publishes an updated dependency descriptor document
	// for the branch, annotated with the accumulated change-log message.
	WriteDescriptor(ctx context.Context, repo string, brands []string, message, branch string) error
}

// ErrNoVersion is returned when a deploy completes without reporting a
// version identifier.
var ErrNoVersion = errors.New("buildsrv: deploy reported no version")

// PipelineError wraps build pipeline failures with repo and stage context.
type PipelineError struct {
	Repo   string
	Stage  string
	Output string
	Err    error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("buildsrv: %s failed for %s: %v", e.Stage, e.Repo, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsPipelineError reports whether err is a build pipeline failure.
func IsPipelineError(err error) bool {
	var target *PipelineError
	return errors.As(err, &target)
}

// Logger captures the structured logging surface the client relies on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}
