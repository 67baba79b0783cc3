package campaign

import "context"

// Deployment records one promoted branch and the version the deployment
// machinery assigned to it.
type Deployment struct {
	Repo    string
	Branch  string
	Version string
}

// DeployReleaseCandidates promotes every branch that is fully patched and
// propagated but not yet deployed. Messages are kept; they are only shipped
// by the production deploy. A failed deploy aborts the pass after the state
// is persisted.
func (s *Service) DeployReleaseCandidates(ctx context.Context) ([]Deployment, error) {
	return s.deployWhere(ctx, (*ModifiedBranch).IsReadyForReleaseCandidate, false)
}

// DeployProduction promotes every branch whose release candidate is ready
// to ship. On success the branch's messages are cleared and the branch is
// dropped from the tracked set if nothing else keeps it alive.
func (s *Service) DeployProduction(ctx context.Context) ([]Deployment, error) {
	return s.deployWhere(ctx, (*ModifiedBranch).IsReadyForProduction, true)
}

func (s *Service) deployWhere(ctx context.Context, ready func(*ModifiedBranch) bool, production bool) ([]Deployment, error) {
	var deployed []Deployment
	err := s.mutate(ctx, func(ctx context.Context, st *State) error {
		for _, mb := range st.SortedBranches() {
			if !ready(mb) {
				continue
			}

			if s.dryRun {
				s.logger.Info("dry run: would deploy",
					"branch", mb.Key(), "production", production, "messages", mb.Messages)
				continue
			}

			version, err := s.build.Deploy(ctx, mb.Release.Repo, mb.Release.Branch,
				mb.Release.Brands, joinMessages(mb.Messages))
			if err != nil {
				return err
			}

			mb.DeployedVersion = version
			if production {
				mb.Messages = nil
				st.prune(mb)
			}
			deployed = append(deployed, Deployment{
				Repo:    mb.Release.Repo,
				Branch:  mb.Release.Branch,
				Version: version,
			})
			s.logger.Info("deployed",
				"branch", mb.Key(), "version", version, "production", production)
		}
		return nil
	})
	return deployed, err
}
