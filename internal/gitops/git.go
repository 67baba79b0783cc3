package gitops

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// operations implements Git over a workspace of local checkouts. Mutating
// commands shell out to git through a CommandRunner; read-only plumbing
// (rev-parse, ancestry, branch listing) goes through go-git.
type operations struct {
	workspace string
	runner    CommandRunner
	logger    Logger
}

// New creates a Git implementation rooted at the workspace directory, where
// every fleet repository is checked out at workspace/<repo>.
func New(workspace string, logger Logger) Git {
	return NewWithRunner(workspace, NewDefaultCommandRunner(), logger)
}

// NewWithRunner creates a Git implementation with a custom command runner.
func NewWithRunner(workspace string, runner CommandRunner, logger Logger) Git {
	if logger == nil {
		logger = nopLogger{}
	}
	return &operations{
		workspace: workspace,
		runner:    runner,
		logger:    logger,
	}
}

func (g *operations) repoPath(repo string) string {
	return filepath.Join(g.workspace, repo)
}

// Checkout switches to ref, falling back to creating a tracking branch from
// origin when the branch is not yet checked out locally.
func (g *operations) Checkout(ctx context.Context, repo, ref string) error {
	dir := g.repoPath(repo)
	if _, err := g.runner.Run(ctx, dir, "checkout", ref); err == nil {
		return nil
	}
	if _, err := g.runner.Run(ctx, dir, "checkout", "-b", ref, "origin/"+ref); err != nil {
		return &OperationError{Repo: repo, Operation: "checkout " + ref, Err: err}
	}
	return nil
}

// Pull fast-forwards the current branch.
func (g *operations) Pull(ctx context.Context, repo string) error {
	if _, err := g.runner.Run(ctx, g.repoPath(repo), "pull", "--ff-only"); err != nil {
		return &OperationError{Repo: repo, Operation: "pull", Err: err}
	}
	return nil
}

// CherryPick applies sha onto HEAD. A pick that fails to apply is aborted so
// the working copy stays clean, and ErrCherryPickConflict is returned. Any
// other failure (unknown object, unusable working copy) is an operation error.
func (g *operations) CherryPick(ctx context.Context, repo, sha string) (string, error) {
	dir := g.repoPath(repo)
	output, err := g.runner.Run(ctx, dir, "cherry-pick", sha)
	if err != nil {
		if isConflictFailure(err, output) {
			g.logger.Debug("cherry-pick conflict, aborting", "repo", repo, "sha", sha)
			// Best-effort abort; a pick that never started has nothing to abort.
			g.runner.Run(ctx, dir, "cherry-pick", "--abort")
			return "", fmt.Errorf("%w: %s onto %s", ErrCherryPickConflict, sha, repo)
		}
		return "", &OperationError{Repo: repo, Operation: "cherry-pick " + sha, Err: err}
	}

	head, err := g.runner.Run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", &OperationError{Repo: repo, Operation: "rev-parse HEAD", Err: err}
	}
	return strings.TrimSpace(head), nil
}

// isConflictFailure distinguishes an expected merge conflict from a git
// invocation that never got as far as applying the change.
func isConflictFailure(err error, output string) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	var exitErr *exec.ExitError
	if !errors.As(cmdErr.Err, &exitErr) {
		// git itself could not run; nothing was applied.
		return false
	}
	lowered := strings.ToLower(output)
	if strings.Contains(lowered, "bad revision") || strings.Contains(lowered, "bad object") {
		return false
	}
	return true
}

// CreateBranch creates branch name at ref without switching the working copy.
func (g *operations) CreateBranch(ctx context.Context, repo, name, ref string) error {
	if _, err := g.runner.Run(ctx, g.repoPath(repo), "branch", name, ref); err != nil {
		return &OperationError{Repo: repo, Operation: "branch " + name, Err: err}
	}
	return nil
}

// FastForward advances branch to sha using an update that refuses to rewrite
// history. The branch must not be checked out in the working copy.
func (g *operations) FastForward(ctx context.Context, repo, branch, sha string) error {
	dir := g.repoPath(repo)
	if _, err := g.runner.Run(ctx, dir, "merge-base", "--is-ancestor", branch, sha); err != nil {
		return &OperationError{
			Repo:      repo,
			Operation: "fast-forward " + branch,
			Err:       fmt.Errorf("%s is not a fast-forward of %s: %w", sha, branch, err),
		}
	}
	if _, err := g.runner.Run(ctx, dir, "branch", "-f", branch, sha); err != nil {
		return &OperationError{Repo: repo, Operation: "fast-forward " + branch, Err: err}
	}
	return nil
}

// Push publishes branch to origin.
func (g *operations) Push(ctx context.Context, repo, branch string) error {
	if _, err := g.runner.Run(ctx, g.repoPath(repo), "push", "origin", branch); err != nil {
		return &OperationError{Repo: repo, Operation: "push " + branch, Err: err}
	}
	return nil
}

// RevParse resolves ref to a full commit hash via go-git.
func (g *operations) RevParse(ctx context.Context, repo, ref string) (string, error) {
	hash, err := resolveRevision(g.repoPath(repo), ref)
	if err != nil {
		return "", &OperationError{Repo: repo, Operation: "rev-parse " + ref, Err: err}
	}
	return hash, nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (g *operations) IsAncestor(ctx context.Context, repo, ancestor, descendant string) (bool, error) {
	ok, err := isAncestor(g.repoPath(repo), ancestor, descendant)
	if err != nil {
		return false, &OperationError{Repo: repo, Operation: "ancestry check", Err: err}
	}
	return ok, nil
}

// Branches lists branch names known to the repository, merging local heads
// with origin tracking refs.
func (g *operations) Branches(ctx context.Context, repo string) ([]string, error) {
	names, err := listBranches(g.repoPath(repo))
	if err != nil {
		return nil, &OperationError{Repo: repo, Operation: "branch listing", Err: err}
	}
	sort.Strings(names)
	return names, nil
}
