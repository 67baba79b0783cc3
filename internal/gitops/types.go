package gitops

import (
	"context"
	"errors"
	"fmt"
)

// Git exposes the version-control operations the campaign engine consumes.
// Repositories are addressed by name and resolved against the workspace
// directory; every operation reports success or failure, nothing more.
type Git interface {
	// Checkout switches the repository's working copy to ref, creating a
	// local tracking branch from origin when the branch only exists remotely.
	Checkout(ctx context.Context, repo, ref string) error
	// Pull fast-forwards the current branch from origin.
	Pull(ctx context.Context, repo string) error
	// CherryPick applies the change introduced by sha onto the current HEAD
	// and returns the resulting commit hash. A conflicting pick is aborted
	// and reported as ErrCherryPickConflict.
	CherryPick(ctx context.Context, repo, sha string) (string, error)
	// CreateBranch creates branch name pointing at ref without switching to it.
	CreateBranch(ctx context.Context, repo, name, ref string) error
	// FastForward advances branch to sha; a non-fast-forward advance fails.
	FastForward(ctx context.Context, repo, branch, sha string) error
	// Push publishes branch to origin.
	Push(ctx context.Context, repo, branch string) error
	// RevParse resolves ref to a full commit hash.
	RevParse(ctx context.Context, repo, ref string) (string, error)
	// IsAncestor reports whether ancestor is reachable from descendant.
	IsAncestor(ctx context.Context, repo, ancestor, descendant string) (bool, error)
	// Branches lists the branch names known to the repository, local and remote.
	Branches(ctx context.Context, repo string) ([]string, error)
}

// CommandRunner executes git commands in a repository working copy.
type CommandRunner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ErrCherryPickConflict is returned when a cherry-pick does not apply
// cleanly. Conflicts are expected and recoverable; the working copy is
// restored before the error is returned.
var ErrCherryPickConflict = errors.New("gitops: cherry-pick conflict")

// OperationError wraps git failures with enough context to diagnose and
// resume manually.
type OperationError struct {
	Repo      string
	Operation string
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("gitops: git %s failed for %s: %v", e.Operation, e.Repo, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// IsOperationError reports whether err is a git operation failure.
func IsOperationError(err error) bool {
	var target *OperationError
	return errors.As(err, &target)
}

// CommandError represents a git command that exited unsuccessfully.
type CommandError struct {
	Args   []string
	Dir    string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("gitops: git %v failed in %s: %v", e.Args, e.Dir, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Logger captures the structured logging surface gitops relies on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}
