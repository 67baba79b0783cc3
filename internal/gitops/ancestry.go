package gitops

import (
	"fmt"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// resolveRevision resolves a ref (branch, tag, sha, sha prefix) to a full
// commit hash using go-git plumbing on the local checkout.
func resolveRevision(repoPath, ref string) (string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", fmt.Errorf("open repository %s: %w", repoPath, err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		// Branch names that only exist as origin tracking refs.
		hash, err = repo.ResolveRevision(plumbing.Revision("origin/" + ref))
		if err != nil {
			return "", fmt.Errorf("resolve revision %q: %w", ref, err)
		}
	}

	return hash.String(), nil
}

// isAncestor reports whether the commit named by ancestor is reachable from
// the commit named by descendant.
func isAncestor(repoPath, ancestor, descendant string) (bool, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return false, fmt.Errorf("open repository %s: %w", repoPath, err)
	}

	ancestorCommit, err := commitForRevision(repo, ancestor)
	if err != nil {
		return false, err
	}
	descendantCommit, err := commitForRevision(repo, descendant)
	if err != nil {
		return false, err
	}

	ok, err := ancestorCommit.IsAncestor(descendantCommit)
	if err != nil {
		return false, fmt.Errorf("ancestry walk: %w", err)
	}
	return ok, nil
}

func commitForRevision(repo *git.Repository, rev string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		hash, err = repo.ResolveRevision(plumbing.Revision("origin/" + rev))
		if err != nil {
			return nil, fmt.Errorf("resolve revision %q: %w", rev, err)
		}
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}
	return commit, nil
}

// listBranches merges local heads with origin tracking refs, deduplicated
// and stripped of the remote prefix.
func listBranches(repoPath string) ([]string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", repoPath, err)
	}

	seen := map[string]bool{}

	branches, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer branches.Close()
	if err := branches.ForEach(func(ref *plumbing.Reference) error {
		seen[ref.Name().Short()] = true
		return nil
	}); err != nil {
		return nil, fmt.Errorf("walk branches: %w", err)
	}

	refs, err := repo.References()
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer refs.Close()
	if err := refs.ForEach(func(ref *plumbing.Reference) error {
		if !ref.Name().IsRemote() {
			return nil
		}
		name := ref.Name().Short() // e.g. origin/1.2
		if rest, ok := strings.CutPrefix(name, "origin/"); ok && rest != "HEAD" {
			seen[rest] = true
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("walk references: %w", err)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names, nil
}
