package campaign

import (
	"context"

	"github.com/goliatone/backport/internal/fleet"
)

// PatchStatus reports whether one release branch's dependency line already
// contains a tracked patch.
type PatchStatus struct {
	PatchRepo string
	Message   string
	// Included is true when any candidate commit is an ancestor of the
	// branch's declared dependency.
	Included bool
	// Needed is true when the branch is tracked as still needing the patch.
	Needed bool
	// Applies is false when the branch does not depend on the patched repo.
	Applies bool
}

// BranchStatus is the full report for one release branch.
type BranchStatus struct {
	Release fleet.ReleaseBranch
	Tracked bool
	Patches []PatchStatus
}

// Status resolves the live release branch and reports, for every tracked
// patch, whether the branch already contains it. Read-only.
func (s *Service) Status(ctx context.Context, repo, branch string) (*BranchStatus, error) {
	release, err := s.fleet.Resolve(ctx, repo, branch)
	if err != nil {
		return nil, err
	}

	report := &BranchStatus{Release: *release}
	err = s.inspect(ctx, func(ctx context.Context, st *State) error {
		mb, tracked := st.Branch(repo, branch)
		report.Tracked = tracked

		for _, patch := range st.SortedPatches() {
			status := PatchStatus{
				PatchRepo: patch.Repo,
				Message:   patch.Message,
				Applies:   release.DependsOn(patch.Repo),
			}
			if tracked {
				status.Needed = mb.Needs(patch.Repo)
			}
			for _, sha := range patch.SHAs {
				included, err := release.IncludesSHA(ctx, s.git, patch.Repo, sha)
				if err != nil {
					return err
				}
				if included {
					status.Included = true
					break
				}
			}
			report.Patches = append(report.Patches, status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Link is one release branch's published dependency line: the durable
// dependency branch name and the commits it declares.
type Link struct {
	Release      fleet.ReleaseBranch
	DepBranch    string
	Dependencies map[string]string
}

// Links lists every maintained release branch with its dependency branch
// and declared dependency commits, ordered by repo then descending version.
// Read-only.
func (s *Service) Links(ctx context.Context) ([]Link, error) {
	releases, err := s.fleet.ReleaseBranches(ctx)
	if err != nil {
		return nil, err
	}

	links := make([]Link, 0, len(releases))
	for _, release := range releases {
		links = append(links, Link{
			Release:      release,
			DepBranch:    s.depBranchPrefix + release.Branch,
			Dependencies: release.Dependencies,
		})
	}
	return links, nil
}
