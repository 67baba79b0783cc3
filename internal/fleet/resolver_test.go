package fleet

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/backport/internal/gitops"
)

const testDescriptor = `brands:
  - standard
  - pro
dependencies:
  common: 89abcde76543210fedcba9876543210fedcba987
  sim-a: 0123456789abcdef0123456789abcdef01234567
`

// initFleetRepo creates a repository whose "1.2" release branch carries a
// release descriptor and whose master has moved on since.
func initFleetRepo(t *testing.T, dir string) {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	sig := &object.Signature{
		Name:  "fleet-bot",
		Email: "fleet@example.com",
		When:  time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
	}

	commit := func(name, content, msg string) plumbing.Hash {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
		_, err := wt.Add(name)
		require.NoError(t, err)
		hash, err := wt.Commit(msg, &git.CommitOptions{Author: sig, Committer: sig})
		require.NoError(t, err)
		return hash
	}

	c1 := commit(DescriptorFile, testDescriptor, "declare 1.2 release")
	require.NoError(t, repo.Storer.SetReference(
		plumbing.NewHashReference(plumbing.NewBranchReferenceName("1.2"), c1)))
	commit("solver.txt", "new solver\n", "mainline work after the release")
}

func TestLocalResolverReleaseBranches(t *testing.T) {
	workspace := t.TempDir()
	initFleetRepo(t, filepath.Join(workspace, "sim-a"))

	resolver := NewLocalResolver(workspace, []string{"sim-a"}, gitops.New(workspace, nil), nil)
	branches, err := resolver.ReleaseBranches(context.Background())
	require.NoError(t, err)
	require.Len(t, branches, 1)

	rb := branches[0]
	assert.Equal(t, "sim-a", rb.Repo)
	assert.Equal(t, "1.2", rb.Branch)
	assert.Equal(t, []string{"standard", "pro"}, rb.Brands)
	assert.Equal(t, "89abcde76543210fedcba9876543210fedcba987", rb.Dependencies["common"])
}

func TestLocalResolverResolve(t *testing.T) {
	workspace := t.TempDir()
	initFleetRepo(t, filepath.Join(workspace, "sim-a"))

	resolver := NewLocalResolver(workspace, []string{"sim-a"}, gitops.New(workspace, nil), nil)
	ctx := context.Background()

	rb, err := resolver.Resolve(ctx, "sim-a", "1.2")
	require.NoError(t, err)
	assert.True(t, rb.DependsOn("common"))
	assert.False(t, rb.DependsOn("sim-z"))

	_, err = resolver.Resolve(ctx, "sim-a", "9.9")
	assert.ErrorIs(t, err, ErrBranchNotFound)

	_, err = resolver.Resolve(ctx, "sim-a", "master")
	assert.ErrorIs(t, err, ErrBranchNotFound, "non-release branches are never maintained")

	_, err = resolver.Resolve(ctx, "sim-z", "1.2")
	assert.ErrorIs(t, err, ErrBranchNotFound, "inactive repos are never maintained")
}

type fakeAncestry struct {
	ancestors map[[2]string]bool
}

func (f *fakeAncestry) IsAncestor(ctx context.Context, repo, ancestor, descendant string) (bool, error) {
	return f.ancestors[[2]string{ancestor, descendant}], nil
}

func TestIncludesAndMissingSHA(t *testing.T) {
	rb := ReleaseBranch{
		Repo:         "sim-a",
		Branch:       "1.2",
		Dependencies: map[string]string{"common": "headsha"},
	}
	ctx := context.Background()

	checker := &fakeAncestry{ancestors: map[[2]string]bool{
		{"oldsha", "headsha"}: true,
	}}

	included, err := rb.IncludesSHA(ctx, checker, "common", "oldsha")
	require.NoError(t, err)
	assert.True(t, included)

	included, err = rb.IncludesSHA(ctx, checker, "common", "newsha")
	require.NoError(t, err)
	assert.False(t, included)

	missing, err := rb.MissingSHA(ctx, checker, "common", "newsha")
	require.NoError(t, err)
	assert.True(t, missing)

	// A branch that does not depend on the repo neither includes nor misses it.
	included, err = rb.IncludesSHA(ctx, checker, "sim-z", "oldsha")
	require.NoError(t, err)
	assert.False(t, included)

	missing, err = rb.MissingSHA(ctx, checker, "sim-z", "newsha")
	require.NoError(t, err)
	assert.False(t, missing)
}

func TestLoadActiveRepos(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repos.txt")
	require.NoError(t, os.WriteFile(path, []byte(`
# simulation fleet
sim-a
sim-b

common
`), 0644))

	repos, err := LoadActiveRepos(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"sim-a", "sim-b", "common"}, repos)

	_, err = LoadActiveRepos(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
