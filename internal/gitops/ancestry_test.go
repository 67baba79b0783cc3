package gitops

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
)

// initTestRepo builds a repository with two commits on master and a "1.2"
// branch pinned at the first commit. Returns the two commit hashes.
func initTestRepo(t *testing.T, dir string) (first, second string) {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	sig := &object.Signature{
		Name:  "fleet-bot",
		Email: "fleet@example.com",
		When:  time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC),
	}

	commit := func(name, content, msg string) plumbing.Hash {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
		_, err := wt.Add(name)
		require.NoError(t, err)
		hash, err := wt.Commit(msg, &git.CommitOptions{Author: sig, Committer: sig})
		require.NoError(t, err)
		return hash
	}

	c1 := commit("physics.txt", "v1\n", "initial physics model")
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName("1.2"), c1)
	require.NoError(t, repo.Storer.SetReference(ref))
	c2 := commit("physics.txt", "v2\n", "tune solver constants")

	return c1.String(), c2.String()
}

func TestResolveRevision(t *testing.T) {
	workspace := t.TempDir()
	repoDir := filepath.Join(workspace, "sim-a")
	c1, c2 := initTestRepo(t, repoDir)

	g := New(workspace, nil)
	ctx := context.Background()

	got, err := g.RevParse(ctx, "sim-a", "1.2")
	require.NoError(t, err)
	assert.Equal(t, c1, got)

	got, err = g.RevParse(ctx, "sim-a", "master")
	require.NoError(t, err)
	assert.Equal(t, c2, got)

	_, err = g.RevParse(ctx, "sim-a", "no-such-ref")
	require.Error(t, err)
	assert.True(t, IsOperationError(err))
}

func TestIsAncestor(t *testing.T) {
	workspace := t.TempDir()
	repoDir := filepath.Join(workspace, "sim-a")
	c1, c2 := initTestRepo(t, repoDir)

	g := New(workspace, nil)
	ctx := context.Background()

	ok, err := g.IsAncestor(ctx, "sim-a", c1, c2)
	require.NoError(t, err)
	assert.True(t, ok, "first commit must be an ancestor of the second")

	ok, err = g.IsAncestor(ctx, "sim-a", c2, c1)
	require.NoError(t, err)
	assert.False(t, ok, "second commit must not be an ancestor of the first")

	// Branch names resolve like any other revision.
	ok, err = g.IsAncestor(ctx, "sim-a", "1.2", "master")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBranches(t *testing.T) {
	workspace := t.TempDir()
	repoDir := filepath.Join(workspace, "sim-a")
	initTestRepo(t, repoDir)

	g := New(workspace, nil)
	names, err := g.Branches(context.Background(), "sim-a")
	require.NoError(t, err)
	assert.Contains(t, names, "master")
	assert.Contains(t, names, "1.2")
}
