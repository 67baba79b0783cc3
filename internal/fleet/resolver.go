package fleet

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BranchLister enumerates branch names of a repository. Satisfied by
// gitops.Git.
type BranchLister interface {
	Branches(ctx context.Context, repo string) ([]string, error)
}

// localResolver resolves release branches from the workspace checkouts.
type localResolver struct {
	workspace string
	repos     []string
	git       BranchLister
	logger    Logger
}

// NewLocalResolver creates a Resolver that reads release descriptors from
// the local checkouts under workspace for the given active repositories.
func NewLocalResolver(workspace string, repos []string, git BranchLister, logger Logger) Resolver {
	if logger == nil {
		logger = nopLogger{}
	}
	return &localResolver{
		workspace: workspace,
		repos:     repos,
		git:       git,
		logger:    logger,
	}
}

// ReleaseBranches lists every maintained release branch across the active
// repositories, newest release first within each repo. Branches without a
// release descriptor are skipped with a log line rather than failing the
// whole enumeration.
func (r *localResolver) ReleaseBranches(ctx context.Context) ([]ReleaseBranch, error) {
	var out []ReleaseBranch

	for _, repo := range r.repos {
		names, err := r.git.Branches(ctx, repo)
		if err != nil {
			return nil, &ResolveError{Repo: repo, Err: err}
		}

		var releases []string
		for _, name := range names {
			if IsReleaseBranch(name) {
				releases = append(releases, name)
			}
		}
		SortReleaseBranches(releases)

		for _, branch := range releases {
			rb, err := r.resolveOne(repo, branch)
			if err != nil {
				if err == ErrNoDescriptor {
					r.logger.Debug("skipping branch without release descriptor", "repo", repo, "branch", branch)
					continue
				}
				return nil, err
			}
			out = append(out, *rb)
		}
	}

	return out, nil
}

// Resolve returns the descriptor for one (repo, branch) pair.
func (r *localResolver) Resolve(ctx context.Context, repo, branch string) (*ReleaseBranch, error) {
	if !r.isActive(repo) || !IsReleaseBranch(branch) {
		return nil, ErrBranchNotFound
	}

	names, err := r.git.Branches(ctx, repo)
	if err != nil {
		return nil, &ResolveError{Repo: repo, Branch: branch, Err: err}
	}
	found := false
	for _, name := range names {
		if name == branch {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrBranchNotFound
	}

	rb, err := r.resolveOne(repo, branch)
	if err != nil {
		if err == ErrNoDescriptor {
			return nil, ErrBranchNotFound
		}
		return nil, err
	}
	return rb, nil
}

func (r *localResolver) resolveOne(repo, branch string) (*ReleaseBranch, error) {
	desc, err := readDescriptorAt(filepath.Join(r.workspace, repo), branch)
	if err != nil {
		if err == ErrNoDescriptor {
			return nil, err
		}
		return nil, &ResolveError{Repo: repo, Branch: branch, Err: err}
	}

	return &ReleaseBranch{
		Repo:         repo,
		Branch:       branch,
		Brands:       desc.Brands,
		Dependencies: desc.Dependencies,
	}, nil
}

func (r *localResolver) isActive(repo string) bool {
	for _, name := range r.repos {
		if name == repo {
			return true
		}
	}
	return false
}

// DiscoverWorkspaceRepos lists the repositories checked out directly under
// workspace, identified by a .git entry.
func DiscoverWorkspaceRepos(workspace string) ([]string, error) {
	entries, err := os.ReadDir(workspace)
	if err != nil {
		return nil, fmt.Errorf("read workspace %s: %w", workspace, err)
	}

	var repos []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(workspace, entry.Name(), ".git")); err == nil {
			repos = append(repos, entry.Name())
		}
	}
	return repos, nil
}

// LoadActiveRepos reads the active repository list, one name per line.
// Blank lines and #-comments are ignored.
func LoadActiveRepos(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open active repos list %s: %w", path, err)
	}
	defer file.Close()

	var repos []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		repos = append(repos, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read active repos list %s: %w", path, err)
	}

	return repos, nil
}
