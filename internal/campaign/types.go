package campaign

import (
	"sort"

	"github.com/goliatone/backport/internal/fleet"
)

// Patch is a tracked fix for one repository: an ordered list of candidate
// commits to cherry-pick and a change-log message. At most one patch is
// active per repository; identity is the repo name, content is mutable.
type Patch struct {
	Repo    string
	Message string
	SHAs    []string
}

// HasSHA reports whether sha is among the patch's candidate commits.
func (p *Patch) HasSHA(sha string) bool {
	for _, s := range p.SHAs {
		if s == sha {
			return true
		}
	}
	return false
}

// ModifiedBranch is the mutable working state for one release branch under
// maintenance: the patches it still needs, dependency repositories already
// moved to new commits but not yet propagated, accumulated change-log
// messages, and the last deployed version.
type ModifiedBranch struct {
	Release             fleet.ReleaseBranch
	NeededPatches       []*Patch
	ChangedDependencies map[string]string
	Messages            []string
	DeployedVersion     string
}

func newModifiedBranch(release fleet.ReleaseBranch) *ModifiedBranch {
	return &ModifiedBranch{
		Release:             release,
		ChangedDependencies: map[string]string{},
	}
}

// Key identifies the branch within the campaign.
func (mb *ModifiedBranch) Key() string {
	return branchKey(mb.Release.Repo, mb.Release.Branch)
}

func branchKey(repo, branch string) string {
	return repo + "/" + branch
}

// Needs reports whether the branch still needs the patch for patchRepo.
func (mb *ModifiedBranch) Needs(patchRepo string) bool {
	for _, p := range mb.NeededPatches {
		if p.Repo == patchRepo {
			return true
		}
	}
	return false
}

// addNeeded links a patch, skipping when already present.
func (mb *ModifiedBranch) addNeeded(p *Patch) bool {
	if mb.Needs(p.Repo) {
		return false
	}
	mb.NeededPatches = append(mb.NeededPatches, p)
	return true
}

// removeNeeded unlinks the patch for patchRepo. Reports whether a link was
// removed.
func (mb *ModifiedBranch) removeNeeded(patchRepo string) bool {
	for i, p := range mb.NeededPatches {
		if p.Repo == patchRepo {
			mb.NeededPatches = append(mb.NeededPatches[:i], mb.NeededPatches[i+1:]...)
			return true
		}
	}
	return false
}

// addMessage appends a change-log message unless an identical one is
// already queued. Patches addressing the same issue in different repos
// share a message.
func (mb *ModifiedBranch) addMessage(msg string) {
	for _, m := range mb.Messages {
		if m == msg {
			return
		}
	}
	mb.Messages = append(mb.Messages, msg)
}

// IsUnused reports whether the branch has no outstanding work and can be
// dropped from the tracked set.
func (mb *ModifiedBranch) IsUnused() bool {
	return len(mb.NeededPatches) == 0 && len(mb.ChangedDependencies) == 0
}

// IsReadyForReleaseCandidate reports whether the branch is fully patched
// and propagated with pending change-log messages and no release candidate
// cut yet.
func (mb *ModifiedBranch) IsReadyForReleaseCandidate() bool {
	return len(mb.NeededPatches) == 0 &&
		len(mb.ChangedDependencies) == 0 &&
		len(mb.Messages) > 0 &&
		mb.DeployedVersion == ""
}

// IsReadyForProduction reports whether a release candidate has been cut and
// its messages not yet shipped.
func (mb *ModifiedBranch) IsReadyForProduction() bool {
	return len(mb.NeededPatches) == 0 &&
		len(mb.ChangedDependencies) == 0 &&
		len(mb.Messages) > 0 &&
		mb.DeployedVersion != ""
}

// State is the top-level aggregate owning every tracked patch and modified
// branch. Invariant: every patch referenced from a ModifiedBranch's
// NeededPatches is present in Patches, by identity.
type State struct {
	Patches          map[string]*Patch
	ModifiedBranches map[string]*ModifiedBranch
}

// NewState returns an empty campaign state.
func NewState() *State {
	return &State{
		Patches:          map[string]*Patch{},
		ModifiedBranches: map[string]*ModifiedBranch{},
	}
}

// SortedPatches returns the tracked patches ordered by repo name.
func (st *State) SortedPatches() []*Patch {
	keys := make([]string, 0, len(st.Patches))
	for k := range st.Patches {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*Patch, 0, len(keys))
	for _, k := range keys {
		out = append(out, st.Patches[k])
	}
	return out
}

// SortedBranches returns the tracked branches ordered by (repo, branch).
func (st *State) SortedBranches() []*ModifiedBranch {
	keys := make([]string, 0, len(st.ModifiedBranches))
	for k := range st.ModifiedBranches {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*ModifiedBranch, 0, len(keys))
	for _, k := range keys {
		out = append(out, st.ModifiedBranches[k])
	}
	return out
}

// Branch looks up a tracked branch by (repo, branch).
func (st *State) Branch(repo, branch string) (*ModifiedBranch, bool) {
	mb, ok := st.ModifiedBranches[branchKey(repo, branch)]
	return mb, ok
}

// track registers a modified branch.
func (st *State) track(mb *ModifiedBranch) {
	st.ModifiedBranches[mb.Key()] = mb
}

// prune drops the branch if it has become unused. Reports whether it was
// dropped.
func (st *State) prune(mb *ModifiedBranch) bool {
	if !mb.IsUnused() {
		return false
	}
	delete(st.ModifiedBranches, mb.Key())
	return true
}

// patchInUse reports whether any tracked branch still needs the patch.
func (st *State) patchInUse(patchRepo string) bool {
	for _, mb := range st.ModifiedBranches {
		if mb.Needs(patchRepo) {
			return true
		}
	}
	return false
}
