package campaign

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/backport/internal/buildsrv"
	"github.com/goliatone/backport/internal/fleet"
	"github.com/goliatone/backport/internal/gitops"
	"github.com/goliatone/backport/internal/store"
)

const (
	defaultMainline        = "master"
	defaultDepBranchPrefix = "deps/"
)

// Logger captures the structured logging surface the campaign relies on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}

// Service drives a maintenance campaign: it owns the persisted state and
// sequences the git, fleet and pipeline collaborators. Operations run one at
// a time under the store lock; each repository working copy is a single
// mutable slot, so branches are processed strictly in sequence.
type Service struct {
	store  store.Manager
	git    gitops.Git
	build  buildsrv.Client
	fleet  fleet.Resolver
	logger Logger

	mainline        string
	depBranchPrefix string
	dryRun          bool
}

// ServiceOption customizes Service construction.
type ServiceOption func(*Service)

// WithLogger wires a structured logger.
func WithLogger(l Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMainline sets the branch working copies are restored to after use.
func WithMainline(branch string) ServiceOption {
	return func(s *Service) {
		if branch != "" {
			s.mainline = branch
		}
	}
}

// WithDependencyBranchPrefix sets the prefix of the durable per-release
// dependency branches, "deps/" by default.
func WithDependencyBranchPrefix(prefix string) ServiceOption {
	return func(s *Service) {
		if prefix != "" {
			s.depBranchPrefix = prefix
		}
	}
}

// WithDryRun makes the engines log intended git and pipeline calls instead
// of performing them. State mutations still happen in memory but are not
// persisted.
func WithDryRun(enabled bool) ServiceOption {
	return func(s *Service) {
		s.dryRun = enabled
	}
}

// NewService wires a campaign service from its collaborators.
func NewService(st store.Manager, git gitops.Git, build buildsrv.Client, resolver fleet.Resolver, opts ...ServiceOption) (*Service, error) {
	if st == nil {
		return nil, errors.New("campaign: store manager is required")
	}
	if git == nil {
		return nil, errors.New("campaign: git operations are required")
	}
	if build == nil {
		return nil, errors.New("campaign: build client is required")
	}
	if resolver == nil {
		return nil, errors.New("campaign: fleet resolver is required")
	}

	s := &Service{
		store:           st,
		git:             git,
		build:           build,
		fleet:           resolver,
		logger:          nopLogger{},
		mainline:        defaultMainline,
		depBranchPrefix: defaultDepBranchPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// mutate runs fn against the loaded state under the store lock and persists
// the state afterward whether fn succeeded or not. Partial progress from a
// failed batch survives for the next resume.
func (s *Service) mutate(ctx context.Context, fn func(ctx context.Context, st *State) error) error {
	guard, err := s.store.Lock()
	if err != nil {
		return fmt.Errorf("campaign: acquiring state lock: %w", err)
	}
	defer func() {
		if rerr := guard.Release(); rerr != nil {
			s.logger.Warn("releasing state lock", "error", rerr)
		}
	}()

	st, err := s.loadState()
	if err != nil {
		return err
	}

	opErr := fn(ctx, st)

	if s.dryRun {
		s.logger.Info("dry run, not persisting state")
		return opErr
	}
	if serr := s.saveState(st); serr != nil {
		if opErr != nil {
			s.logger.Error("persisting state after failed operation", "error", serr)
			return opErr
		}
		return serr
	}
	return opErr
}

// inspect runs fn read-only against the loaded state, without locking or
// saving.
func (s *Service) inspect(ctx context.Context, fn func(ctx context.Context, st *State) error) error {
	st, err := s.loadState()
	if err != nil {
		return err
	}
	return fn(ctx, st)
}

func (s *Service) loadState() (*State, error) {
	doc, err := s.store.Load()
	if errors.Is(err, store.ErrNotFound) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("campaign: loading state: %w", err)
	}
	return decode(doc)
}

func (s *Service) saveState(st *State) error {
	if err := s.store.Save(encode(st)); err != nil {
		return fmt.Errorf("campaign: saving state: %w", err)
	}
	return nil
}

// Load returns the current campaign state for display.
func (s *Service) Load() (*State, error) {
	return s.loadState()
}

// Reset discards the persisted campaign state.
func (s *Service) Reset() error {
	return s.store.Reset()
}

// CreatePatch starts tracking a patch for repo with its change-log message.
func (s *Service) CreatePatch(ctx context.Context, repo, message string) error {
	return s.mutate(ctx, func(_ context.Context, st *State) error {
		if _, err := st.CreatePatch(repo, message); err != nil {
			return err
		}
		s.logger.Info("patch created", "repo", repo, "message", message)
		return nil
	})
}

// RemovePatch stops tracking the patch for repo.
func (s *Service) RemovePatch(ctx context.Context, repo string) error {
	return s.mutate(ctx, func(_ context.Context, st *State) error {
		if err := st.RemovePatch(repo); err != nil {
			return err
		}
		s.logger.Info("patch removed", "repo", repo)
		return nil
	})
}

// AddPatchSHA appends a candidate commit to the patch for repo after
// resolving it to a full hash against the repository.
func (s *Service) AddPatchSHA(ctx context.Context, repo, ref string) error {
	return s.mutate(ctx, func(ctx context.Context, st *State) error {
		if _, ok := st.Patches[repo]; !ok {
			return &ValidationError{Repo: repo, Err: ErrPatchNotFound}
		}
		sha, err := s.git.RevParse(ctx, repo, ref)
		if err != nil {
			return err
		}
		if err := st.AddPatchSHA(repo, sha); err != nil {
			return err
		}
		s.logger.Info("candidate commit added", "repo", repo, "sha", sha)
		return nil
	})
}

// RemovePatchSHA drops a candidate commit from the patch for repo.
func (s *Service) RemovePatchSHA(ctx context.Context, repo, sha string) error {
	return s.mutate(ctx, func(_ context.Context, st *State) error {
		return st.RemovePatchSHA(repo, sha)
	})
}

// ensureBranch returns the tracked ModifiedBranch for (repo, branch),
// resolving and registering the live release branch when it is not tracked
// yet. The tracked set only ever contains branches with active work.
func (s *Service) ensureBranch(ctx context.Context, st *State, repo, branch string) (*ModifiedBranch, error) {
	if mb, ok := st.Branch(repo, branch); ok {
		return mb, nil
	}
	release, err := s.fleet.Resolve(ctx, repo, branch)
	if err != nil {
		return nil, err
	}
	return newModifiedBranch(*release), nil
}

// AddNeed marks (repo, branch) as needing the patch for patchRepo.
func (s *Service) AddNeed(ctx context.Context, patchRepo, repo, branch string) error {
	return s.mutate(ctx, func(ctx context.Context, st *State) error {
		if _, ok := st.Patches[patchRepo]; !ok {
			return &ValidationError{Repo: patchRepo, Err: ErrPatchNotFound}
		}
		mb, err := s.ensureBranch(ctx, st, repo, branch)
		if err != nil {
			return err
		}
		added, err := st.LinkPatch(patchRepo, mb)
		if err != nil {
			return err
		}
		if added {
			s.logger.Info("branch needs patch", "patch", patchRepo, "branch", mb.Key())
		}
		return nil
	})
}

// BranchPredicate selects release branches for bulk need operations.
type BranchPredicate func(ctx context.Context, rb fleet.ReleaseBranch) (bool, error)

// AddNeedWhere links the patch for patchRepo to every maintained release
// branch the predicate selects. Already-linked branches are skipped, so the
// operation is idempotent. Returns the number of new links.
func (s *Service) AddNeedWhere(ctx context.Context, patchRepo string, pred BranchPredicate) (int, error) {
	added := 0
	err := s.mutate(ctx, func(ctx context.Context, st *State) error {
		if _, ok := st.Patches[patchRepo]; !ok {
			return &ValidationError{Repo: patchRepo, Err: ErrPatchNotFound}
		}
		releases, err := s.fleet.ReleaseBranches(ctx)
		if err != nil {
			return err
		}
		for _, release := range releases {
			match, err := pred(ctx, release)
			if err != nil {
				return err
			}
			if !match {
				continue
			}
			mb, ok := st.Branch(release.Repo, release.Branch)
			if !ok {
				mb = newModifiedBranch(release)
			}
			linked, err := st.LinkPatch(patchRepo, mb)
			if err != nil {
				return err
			}
			if linked {
				added++
				s.logger.Info("branch needs patch", "patch", patchRepo, "branch", mb.Key())
			}
		}
		return nil
	})
	return added, err
}

// AddNeedAll links the patch to every maintained release branch.
func (s *Service) AddNeedAll(ctx context.Context, patchRepo string) (int, error) {
	return s.AddNeedWhere(ctx, patchRepo, func(context.Context, fleet.ReleaseBranch) (bool, error) {
		return true, nil
	})
}

// AddNeedBefore links the patch to every branch whose declared dependency
// on the patch repo predates sha, i.e. the branches that do not contain the
// fix yet.
func (s *Service) AddNeedBefore(ctx context.Context, patchRepo, sha string) (int, error) {
	return s.AddNeedWhere(ctx, patchRepo, func(ctx context.Context, rb fleet.ReleaseBranch) (bool, error) {
		return rb.MissingSHA(ctx, s.git, patchRepo, sha)
	})
}

// AddNeedAfter links the patch to every branch whose declared dependency on
// the patch repo already includes sha.
func (s *Service) AddNeedAfter(ctx context.Context, patchRepo, sha string) (int, error) {
	return s.AddNeedWhere(ctx, patchRepo, func(ctx context.Context, rb fleet.ReleaseBranch) (bool, error) {
		return rb.IncludesSHA(ctx, s.git, patchRepo, sha)
	})
}

// RemoveNeed unlinks the patch from one tracked branch, dropping the branch
// when it becomes unused.
func (s *Service) RemoveNeed(ctx context.Context, patchRepo, repo, branch string) error {
	return s.mutate(ctx, func(_ context.Context, st *State) error {
		return st.UnlinkPatch(patchRepo, repo, branch)
	})
}

// RemoveNeedAll unlinks the patch from every tracked branch, pruning
// branches left without work. Returns the number of links removed.
func (s *Service) RemoveNeedAll(ctx context.Context, patchRepo string) (int, error) {
	removed := 0
	err := s.mutate(ctx, func(_ context.Context, st *State) error {
		n, err := st.UnlinkPatchEverywhere(patchRepo)
		removed = n
		return err
	})
	return removed, err
}

// RemoveNeedWhere unlinks the patch from every tracked branch the predicate
// selects, pruning branches left without work.
func (s *Service) RemoveNeedWhere(ctx context.Context, patchRepo string, pred BranchPredicate) (int, error) {
	removed := 0
	err := s.mutate(ctx, func(ctx context.Context, st *State) error {
		if _, ok := st.Patches[patchRepo]; !ok {
			return &ValidationError{Repo: patchRepo, Err: ErrPatchNotFound}
		}
		for _, mb := range st.SortedBranches() {
			if !mb.Needs(patchRepo) {
				continue
			}
			match, err := pred(ctx, mb.Release)
			if err != nil {
				return err
			}
			if !match {
				continue
			}
			if mb.removeNeeded(patchRepo) {
				removed++
				st.prune(mb)
			}
		}
		return nil
	})
	return removed, err
}
