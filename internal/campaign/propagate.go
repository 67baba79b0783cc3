package campaign

import (
	"context"
	"sort"
	"strings"
)

// UpdateDependencies publishes the cherry-picked commits of every tracked
// branch: each changed dependency is fast-forwarded onto (or created as)
// the branch's durable dependency branch and pushed, the entry is cleared,
// the artifact is rebuilt for the branch's brands and an updated dependency
// descriptor is written. A failure aborts the run after the state is
// persisted; branches already propagated stay propagated.
func (s *Service) UpdateDependencies(ctx context.Context) error {
	return s.mutate(ctx, func(ctx context.Context, st *State) error {
		for _, mb := range st.SortedBranches() {
			if len(mb.ChangedDependencies) == 0 {
				continue
			}

			branchErr := s.propagateBranch(ctx, mb)
			restoreErr := s.restoreMainline(ctx, map[string]bool{mb.Release.Repo: true})
			if branchErr != nil {
				return branchErr
			}
			if restoreErr != nil {
				return restoreErr
			}
		}
		return nil
	})
}

func (s *Service) propagateBranch(ctx context.Context, mb *ModifiedBranch) error {
	repo := mb.Release.Repo
	depBranch := s.depBranchPrefix + mb.Release.Branch

	if s.dryRun {
		s.logger.Info("dry run: would propagate dependencies",
			"branch", mb.Key(), "changed", mb.ChangedDependencies, "depBranch", depBranch)
		return nil
	}

	if err := s.git.Checkout(ctx, repo, mb.Release.Branch); err != nil {
		return err
	}
	if err := s.git.Pull(ctx, repo); err != nil {
		return err
	}
	if err := s.build.Refresh(ctx, repo); err != nil {
		return err
	}

	for _, depRepo := range sortedKeys(mb.ChangedDependencies) {
		sha := mb.ChangedDependencies[depRepo]
		if err := s.publishDependency(ctx, depRepo, depBranch, sha); err != nil {
			return err
		}
		delete(mb.ChangedDependencies, depRepo)
		mb.DeployedVersion = ""
		s.logger.Info("dependency propagated",
			"branch", mb.Key(), "dependency", depRepo, "commit", sha)
	}

	if err := s.build.Build(ctx, repo, mb.Release.Brands); err != nil {
		return err
	}
	return s.build.WriteDescriptor(ctx, repo, mb.Release.Brands,
		joinMessages(mb.Messages), mb.Release.Branch)
}

// publishDependency moves the durable dependency branch of depRepo to sha
// and pushes it. The branch only ever advances; a divergent history is an
// external failure for the operator to untangle.
func (s *Service) publishDependency(ctx context.Context, depRepo, depBranch, sha string) error {
	branches, err := s.git.Branches(ctx, depRepo)
	if err != nil {
		return err
	}

	exists := false
	for _, name := range branches {
		if name == depBranch {
			exists = true
			break
		}
	}

	if exists {
		if err := s.git.FastForward(ctx, depRepo, depBranch, sha); err != nil {
			return err
		}
	} else {
		if err := s.git.CreateBranch(ctx, depRepo, depBranch, sha); err != nil {
			return err
		}
	}
	return s.git.Push(ctx, depRepo, depBranch)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinMessages(messages []string) string {
	return strings.Join(messages, "; ")
}
