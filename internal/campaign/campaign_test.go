package campaign

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/backport/internal/fleet"
	"github.com/goliatone/backport/internal/store"
)

// fakeGit records every call and answers from configured tables. It stands
// in for a workspace of repository working copies.
type fakeGit struct {
	checkouts   []string
	picks       []string
	created     []string
	forwarded   []string
	pushed      []string
	pickErr     map[string]error
	pickResult  map[string]string
	checkoutErr map[string]error
	branches    map[string][]string
	revs        map[string]string
	ancestors   map[string]bool
}

func newFakeGit() *fakeGit {
	return &fakeGit{
		pickErr:     map[string]error{},
		pickResult:  map[string]string{},
		checkoutErr: map[string]error{},
		branches:    map[string][]string{},
		revs:        map[string]string{},
		ancestors:   map[string]bool{},
	}
}

func (g *fakeGit) Checkout(_ context.Context, repo, ref string) error {
	key := repo + "@" + ref
	g.checkouts = append(g.checkouts, key)
	return g.checkoutErr[key]
}

func (g *fakeGit) Pull(_ context.Context, _ string) error { return nil }

func (g *fakeGit) CherryPick(_ context.Context, repo, sha string) (string, error) {
	g.picks = append(g.picks, repo+"@"+sha)
	if err := g.pickErr[sha]; err != nil {
		return "", err
	}
	if result, ok := g.pickResult[sha]; ok {
		return result, nil
	}
	return "picked-" + sha, nil
}

func (g *fakeGit) CreateBranch(_ context.Context, repo, name, ref string) error {
	g.created = append(g.created, fmt.Sprintf("%s:%s@%s", repo, name, ref))
	return nil
}

func (g *fakeGit) FastForward(_ context.Context, repo, branch, sha string) error {
	g.forwarded = append(g.forwarded, fmt.Sprintf("%s:%s@%s", repo, branch, sha))
	return nil
}

func (g *fakeGit) Push(_ context.Context, repo, branch string) error {
	g.pushed = append(g.pushed, repo+":"+branch)
	return nil
}

func (g *fakeGit) RevParse(_ context.Context, repo, ref string) (string, error) {
	if sha, ok := g.revs[repo+"@"+ref]; ok {
		return sha, nil
	}
	return ref, nil
}

func (g *fakeGit) IsAncestor(_ context.Context, repo, ancestor, descendant string) (bool, error) {
	return g.ancestors[fmt.Sprintf("%s %s..%s", repo, ancestor, descendant)], nil
}

func (g *fakeGit) Branches(_ context.Context, repo string) ([]string, error) {
	return g.branches[repo], nil
}

// fakeBuild records pipeline calls and returns a configured deploy version.
type fakeBuild struct {
	refreshed   []string
	built       []string
	descriptors []string
	deploys     []string

	deployVersion string
	deployErr     error
}

func (b *fakeBuild) Refresh(_ context.Context, repo string) error {
	b.refreshed = append(b.refreshed, repo)
	return nil
}

func (b *fakeBuild) Build(_ context.Context, repo string, brands []string) error {
	b.built = append(b.built, fmt.Sprintf("%s %v", repo, brands))
	return nil
}

func (b *fakeBuild) Deploy(_ context.Context, repo, branch string, _ []string, message string) (string, error) {
	b.deploys = append(b.deploys, fmt.Sprintf("%s/%s: %s", repo, branch, message))
	if b.deployErr != nil {
		return "", b.deployErr
	}
	if b.deployVersion != "" {
		return b.deployVersion, nil
	}
	return "1.0.0", nil
}

func (b *fakeBuild) WriteDescriptor(_ context.Context, repo string, _ []string, message, branch string) error {
	b.descriptors = append(b.descriptors, fmt.Sprintf("%s/%s: %s", repo, branch, message))
	return nil
}

// fakeResolver serves release branches from a fixed slice.
type fakeResolver struct {
	releases []fleet.ReleaseBranch
}

func (r *fakeResolver) ReleaseBranches(_ context.Context) ([]fleet.ReleaseBranch, error) {
	return r.releases, nil
}

func (r *fakeResolver) Resolve(_ context.Context, repo, branch string) (*fleet.ReleaseBranch, error) {
	for _, release := range r.releases {
		if release.Repo == repo && release.Branch == branch {
			rb := release
			return &rb, nil
		}
	}
	return nil, &fleet.ResolveError{Repo: repo, Branch: branch, Err: fleet.ErrBranchNotFound}
}

func newTestService(t *testing.T, git *fakeGit, build *fakeBuild, resolver *fakeResolver) (*Service, store.Manager) {
	t.Helper()
	mgr := store.NewManager(store.WithStorage(store.NewMemoryStorage()))
	svc, err := NewService(mgr, git, build, resolver)
	require.NoError(t, err)
	return svc, mgr
}

func release(repo, branch string, deps map[string]string) fleet.ReleaseBranch {
	return fleet.ReleaseBranch{
		Repo:         repo,
		Branch:       branch,
		Brands:       []string{"standard"},
		Dependencies: deps,
	}
}

func TestCreatePatchRejectsDuplicate(t *testing.T) {
	st := NewState()
	_, err := st.CreatePatch("sim-a", "fix crash")
	require.NoError(t, err)

	_, err = st.CreatePatch("sim-a", "other message")
	require.ErrorIs(t, err, ErrPatchExists)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "fix crash", st.Patches["sim-a"].Message)
}

func TestRemovePatchGuardsLinkedPatch(t *testing.T) {
	st := NewState()
	_, err := st.CreatePatch("sim-a", "fix crash")
	require.NoError(t, err)

	mb := newModifiedBranch(release("sim-a", "1.2", map[string]string{"sim-a": "c0"}))
	_, err = st.LinkPatch("sim-a", mb)
	require.NoError(t, err)

	err = st.RemovePatch("sim-a")
	require.ErrorIs(t, err, ErrPatchInUse)
	assert.Contains(t, st.Patches, "sim-a")

	require.NoError(t, st.UnlinkPatch("sim-a", "sim-a", "1.2"))
	require.NoError(t, st.RemovePatch("sim-a"))
	assert.Empty(t, st.Patches)
}

func TestPatchSHAValidation(t *testing.T) {
	st := NewState()
	_, err := st.CreatePatch("sim-a", "fix crash")
	require.NoError(t, err)

	require.NoError(t, st.AddPatchSHA("sim-a", "aaa"))
	require.ErrorIs(t, st.AddPatchSHA("sim-a", "aaa"), ErrSHAExists)
	require.ErrorIs(t, st.RemovePatchSHA("sim-a", "bbb"), ErrSHANotFound)
	require.ErrorIs(t, st.AddPatchSHA("sim-b", "aaa"), ErrPatchNotFound)

	require.NoError(t, st.RemovePatchSHA("sim-a", "aaa"))
	assert.Empty(t, st.Patches["sim-a"].SHAs)
}

func TestUnusedBranchGarbageCollection(t *testing.T) {
	st := NewState()
	_, err := st.CreatePatch("sim-a", "fix crash")
	require.NoError(t, err)

	mb := newModifiedBranch(release("sim-a", "1.2", map[string]string{"sim-a": "c0"}))
	_, err = st.LinkPatch("sim-a", mb)
	require.NoError(t, err)
	require.Len(t, st.ModifiedBranches, 1)

	require.NoError(t, st.UnlinkPatch("sim-a", "sim-a", "1.2"))
	assert.Empty(t, st.ModifiedBranches, "branch without work should be pruned")
}

func TestBranchWithChangedDependenciesSurvivesUnlink(t *testing.T) {
	st := NewState()
	_, err := st.CreatePatch("sim-a", "fix crash")
	require.NoError(t, err)

	mb := newModifiedBranch(release("sim-a", "1.2", map[string]string{"sim-a": "c0"}))
	mb.ChangedDependencies["sim-a"] = "picked"
	_, err = st.LinkPatch("sim-a", mb)
	require.NoError(t, err)

	require.NoError(t, st.UnlinkPatch("sim-a", "sim-a", "1.2"))
	assert.Len(t, st.ModifiedBranches, 1, "pending propagation keeps the branch alive")
}

func TestRoundTripPreservesSharedPatchIdentity(t *testing.T) {
	st := NewState()
	_, err := st.CreatePatch("sim-a", "fix crash")
	require.NoError(t, err)
	require.NoError(t, st.AddPatchSHA("sim-a", "deadbeef"))

	for _, branch := range []string{"1.2", "1.10"} {
		mb := newModifiedBranch(release("sim-game", branch, map[string]string{"sim-a": "c0"}))
		_, err = st.LinkPatch("sim-a", mb)
		require.NoError(t, err)
	}

	decoded, err := decode(encode(st))
	require.NoError(t, err)

	first, ok := decoded.Branch("sim-game", "1.2")
	require.True(t, ok)
	second, ok := decoded.Branch("sim-game", "1.10")
	require.True(t, ok)
	require.Len(t, first.NeededPatches, 1)
	require.Len(t, second.NeededPatches, 1)

	// One shared object, not copies: a mutation through one branch is
	// visible through the other and through the patch collection.
	assert.Same(t, first.NeededPatches[0], second.NeededPatches[0])
	assert.Same(t, decoded.Patches["sim-a"], first.NeededPatches[0])

	first.NeededPatches[0].Message = "fix crash harder"
	assert.Equal(t, "fix crash harder", second.NeededPatches[0].Message)
}

func TestDecodeRejectsDanglingPatchReference(t *testing.T) {
	doc := &store.Document{
		ModifiedBranches: []store.ModifiedBranchRecord{{
			Repo:          "sim-game",
			Branch:        "1.2",
			NeededPatches: []string{"sim-a"},
		}},
	}
	_, err := decode(doc)
	require.ErrorIs(t, err, store.ErrCorrupt)
}

func TestServiceAddNeedAllIsIdempotent(t *testing.T) {
	git := newFakeGit()
	build := &fakeBuild{}
	resolver := &fakeResolver{releases: []fleet.ReleaseBranch{
		release("sim-game", "1.2", map[string]string{"sim-a": "c0"}),
		release("sim-game", "1.10", map[string]string{"sim-a": "c1"}),
	}}
	svc, _ := newTestService(t, git, build, resolver)
	ctx := context.Background()

	require.NoError(t, svc.CreatePatch(ctx, "sim-a", "fix crash"))

	added, err := svc.AddNeedAll(ctx, "sim-a")
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = svc.AddNeedAll(ctx, "sim-a")
	require.NoError(t, err)
	assert.Zero(t, added)

	st, err := svc.Load()
	require.NoError(t, err)
	for _, mb := range st.SortedBranches() {
		assert.Len(t, mb.NeededPatches, 1, "exactly one linkage per branch")
	}
}

func TestServiceAddNeedBeforeUsesAncestry(t *testing.T) {
	git := newFakeGit()
	// 1.2 depends on c0 which predates the fix; 1.10 already contains it.
	git.ancestors["sim-a deadbeef..c1"] = true
	build := &fakeBuild{}
	resolver := &fakeResolver{releases: []fleet.ReleaseBranch{
		release("sim-game", "1.2", map[string]string{"sim-a": "c0"}),
		release("sim-game", "1.10", map[string]string{"sim-a": "c1"}),
	}}
	svc, _ := newTestService(t, git, build, resolver)
	ctx := context.Background()

	require.NoError(t, svc.CreatePatch(ctx, "sim-a", "fix crash"))

	added, err := svc.AddNeedBefore(ctx, "sim-a", "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	st, err := svc.Load()
	require.NoError(t, err)
	_, tracked := st.Branch("sim-game", "1.2")
	assert.True(t, tracked)
	_, tracked = st.Branch("sim-game", "1.10")
	assert.False(t, tracked)
}

func TestServiceAddNeedUnknownBranch(t *testing.T) {
	svc, _ := newTestService(t, newFakeGit(), &fakeBuild{}, &fakeResolver{})
	ctx := context.Background()

	require.NoError(t, svc.CreatePatch(ctx, "sim-a", "fix crash"))
	err := svc.AddNeed(ctx, "sim-a", "sim-game", "9.9")
	require.ErrorIs(t, err, fleet.ErrBranchNotFound)
}

func TestServiceAddPatchSHAResolvesRef(t *testing.T) {
	git := newFakeGit()
	git.revs["sim-a@HEAD"] = "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef"
	svc, _ := newTestService(t, git, &fakeBuild{}, &fakeResolver{})
	ctx := context.Background()

	require.NoError(t, svc.CreatePatch(ctx, "sim-a", "fix crash"))
	require.NoError(t, svc.AddPatchSHA(ctx, "sim-a", "HEAD"))

	st, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"deadbeefdeadbeefdeadbeefdeadbeefdeadbeef"}, st.Patches["sim-a"].SHAs)
}

func TestServiceValidationLeavesStateUnchanged(t *testing.T) {
	svc, mgr := newTestService(t, newFakeGit(), &fakeBuild{}, &fakeResolver{})
	ctx := context.Background()

	require.NoError(t, svc.CreatePatch(ctx, "sim-a", "fix crash"))
	err := svc.CreatePatch(ctx, "sim-a", "another")
	require.ErrorIs(t, err, ErrPatchExists)

	doc, err := mgr.Load()
	require.NoError(t, err)
	require.Len(t, doc.Patches, 1)
	assert.Equal(t, "fix crash", doc.Patches[0].Message)
}
