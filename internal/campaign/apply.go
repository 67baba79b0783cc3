package campaign

import (
	"context"
	"errors"
	"sort"

	"github.com/goliatone/backport/internal/gitops"
)

// ApplyPatches cherry-picks every needed patch onto every tracked branch's
// dependency line. For each patch the candidate commits are equivalent fixes
// tried in order; the first clean pick wins. Conflicts leave the patch
// needed for manual resolution and are not fatal. Any other git failure
// aborts the whole run after the state is persisted, so completed work
// survives for a resume. Returns the number of patches applied this run.
func (s *Service) ApplyPatches(ctx context.Context) (int, error) {
	applied := 0
	err := s.mutate(ctx, func(ctx context.Context, st *State) error {
		for _, mb := range st.SortedBranches() {
			if len(mb.NeededPatches) == 0 {
				continue
			}

			touched := map[string]bool{}
			branchErr := s.applyBranch(ctx, st, mb, touched, &applied)
			restoreErr := s.restoreMainline(ctx, touched)
			if branchErr != nil {
				return branchErr
			}
			if restoreErr != nil {
				return restoreErr
			}
		}
		s.logger.Info("patch application finished", "applied", applied)
		return nil
	})
	return applied, err
}

func (s *Service) applyBranch(ctx context.Context, st *State, mb *ModifiedBranch, touched map[string]bool, applied *int) error {
	// NeededPatches shrinks as patches land; iterate over a snapshot.
	pending := make([]*Patch, len(mb.NeededPatches))
	copy(pending, mb.NeededPatches)

	for _, patch := range pending {
		if len(patch.SHAs) == 0 {
			s.logger.Debug("patch has no candidate commits yet", "patch", patch.Repo, "branch", mb.Key())
			continue
		}

		// Resume from a prior partial application when one is recorded,
		// otherwise start from the branch's declared dependency commit.
		base, ok := mb.ChangedDependencies[patch.Repo]
		if !ok {
			base, ok = mb.Release.Dependencies[patch.Repo]
			if !ok {
				s.logger.Warn("branch does not depend on patched repo",
					"patch", patch.Repo, "branch", mb.Key())
				continue
			}
		}

		touched[patch.Repo] = true
		if s.dryRun {
			s.logger.Info("dry run: would cherry-pick",
				"patch", patch.Repo, "branch", mb.Key(), "base", base, "candidates", patch.SHAs)
			continue
		}
		if err := s.git.Checkout(ctx, patch.Repo, base); err != nil {
			return err
		}

		resultSHA, err := s.pickFirst(ctx, patch, mb)
		if err != nil {
			return err
		}
		if resultSHA == "" {
			s.logger.Info("no candidate applied cleanly, patch left needed",
				"patch", patch.Repo, "branch", mb.Key())
			continue
		}

		mb.ChangedDependencies[patch.Repo] = resultSHA
		mb.DeployedVersion = ""
		mb.removeNeeded(patch.Repo)
		mb.addMessage(patch.Message)
		*applied++
		s.logger.Info("patch applied",
			"patch", patch.Repo, "branch", mb.Key(), "commit", resultSHA)
	}
	return nil
}

// pickFirst tries the patch's candidate commits in order and returns the
// commit produced by the first clean cherry-pick, or "" when every
// candidate conflicts.
func (s *Service) pickFirst(ctx context.Context, patch *Patch, mb *ModifiedBranch) (string, error) {
	for _, sha := range patch.SHAs {
		newSHA, err := s.git.CherryPick(ctx, patch.Repo, sha)
		if err == nil {
			return newSHA, nil
		}
		if errors.Is(err, gitops.ErrCherryPickConflict) {
			s.logger.Info("cherry-pick conflict, trying next candidate",
				"patch", patch.Repo, "branch", mb.Key(), "sha", sha)
			continue
		}
		return "", err
	}
	return "", nil
}

// restoreMainline checks every touched working copy back out to mainline.
// The working copy is a shared slot and must not be left on a detached
// dependency commit, even after a failure.
func (s *Service) restoreMainline(ctx context.Context, touched map[string]bool) error {
	repos := make([]string, 0, len(touched))
	for repo := range touched {
		repos = append(repos, repo)
	}
	sort.Strings(repos)

	var firstErr error
	for _, repo := range repos {
		if s.dryRun {
			s.logger.Info("dry run: would restore mainline", "repo", repo, "branch", s.mainline)
			continue
		}
		if err := s.git.Checkout(ctx, repo, s.mainline); err != nil {
			s.logger.Error("restoring mainline", "repo", repo, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
