package fleet

import (
	"context"
	"errors"
	"fmt"
)

// ReleaseBranch is the read-mostly descriptor of one deployed branch of one
// simulation repository: the brands it ships for and the dependency commits
// declared at its HEAD. It is computed on demand from the repository graph,
// never persisted directly.
type ReleaseBranch struct {
	Repo         string
	Branch       string
	Brands       []string
	Dependencies map[string]string
}

// DependsOn reports whether the branch declares a dependency on repo.
func (rb ReleaseBranch) DependsOn(repo string) bool {
	_, ok := rb.Dependencies[repo]
	return ok
}

// AncestryChecker answers whether one commit is reachable from another in a
// repository. Satisfied by gitops.Git.
type AncestryChecker interface {
	IsAncestor(ctx context.Context, repo, ancestor, descendant string) (bool, error)
}

// IncludesSHA reports whether the branch's declared dependency on repo
// already contains sha. A branch with no dependency on repo includes nothing
// from it.
func (rb ReleaseBranch) IncludesSHA(ctx context.Context, git AncestryChecker, repo, sha string) (bool, error) {
	dep, ok := rb.Dependencies[repo]
	if !ok {
		return false, nil
	}
	return git.IsAncestor(ctx, repo, sha, dep)
}

// MissingSHA reports whether the branch depends on repo at a commit that
// predates sha. Branches that do not depend on repo are not missing anything.
func (rb ReleaseBranch) MissingSHA(ctx context.Context, git AncestryChecker, repo, sha string) (bool, error) {
	if !rb.DependsOn(repo) {
		return false, nil
	}
	included, err := rb.IncludesSHA(ctx, git, repo, sha)
	if err != nil {
		return false, err
	}
	return !included, nil
}

// Resolver enumerates the maintained release branches of the fleet.
type Resolver interface {
	// ReleaseBranches lists every maintained release branch across the
	// active repositories, ordered by repo then descending version.
	ReleaseBranches(ctx context.Context) ([]ReleaseBranch, error)
	// Resolve returns the descriptor for a single (repo, branch) pair.
	// Returns ErrBranchNotFound when the branch is not maintained.
	Resolve(ctx context.Context, repo, branch string) (*ReleaseBranch, error)
}

var (
	// ErrBranchNotFound indicates that a (repo, branch) pair is not among
	// the currently maintained release branches.
	ErrBranchNotFound = errors.New("fleet: release branch not found")
	// ErrNoDescriptor indicates that a branch carries no release descriptor.
	ErrNoDescriptor = errors.New("fleet: release descriptor missing")
)

// ResolveError wraps fleet resolution failures with repository context.
type ResolveError struct {
	Repo   string
	Branch string
	Err    error
}

func (e *ResolveError) Error() string {
	if e.Branch != "" {
		return fmt.Sprintf("fleet: resolving %s/%s: %v", e.Repo, e.Branch, e.Err)
	}
	return fmt.Sprintf("fleet: resolving %s: %v", e.Repo, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Logger captures the structured logging surface the resolvers rely on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}
