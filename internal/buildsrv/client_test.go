package buildsrv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, commands Commands) (Client, string) {
	t.Helper()
	workspace := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(workspace, "sim-a"), 0755))
	return NewCommandClient(workspace, commands, time.Minute, nil), workspace
}

func TestDeployReturnsLastOutputLine(t *testing.T) {
	workspace := t.TempDir()
	repoDir := filepath.Join(workspace, "sim-a")
	require.NoError(t, os.MkdirAll(repoDir, 0755))
	script := filepath.Join(repoDir, "deploy.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho uploading artifacts\necho 1.2.7\n"), 0755))

	c := NewCommandClient(workspace, Commands{Deploy: "./deploy.sh"}, time.Minute, nil)
	version, err := c.Deploy(context.Background(), "sim-a", "1.2", []string{"standard"}, "fix crash")
	require.NoError(t, err)
	assert.Equal(t, "1.2.7", version)
}

func TestDeployFailsWithoutVersion(t *testing.T) {
	workspace := t.TempDir()
	repoDir := filepath.Join(workspace, "sim-a")
	require.NoError(t, os.MkdirAll(repoDir, 0755))
	script := filepath.Join(repoDir, "deploy.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0755))

	c := NewCommandClient(workspace, Commands{Deploy: "./deploy.sh"}, time.Minute, nil)
	_, err := c.Deploy(context.Background(), "sim-a", "1.2", []string{"standard"}, "fix crash")
	require.ErrorIs(t, err, ErrNoVersion)
}

func TestBuildSurfacesPipelineError(t *testing.T) {
	workspace := t.TempDir()
	repoDir := filepath.Join(workspace, "sim-a")
	require.NoError(t, os.MkdirAll(repoDir, 0755))
	script := filepath.Join(repoDir, "build.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho compile error >&2\nexit 1\n"), 0755))

	c := NewCommandClient(workspace, Commands{Build: "./build.sh"}, time.Minute, nil)
	err := c.Build(context.Background(), "sim-a", []string{"standard", "pro"})
	require.Error(t, err)
	assert.True(t, IsPipelineError(err))

	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "sim-a", perr.Repo)
	assert.Equal(t, "build", perr.Stage)
	assert.Contains(t, perr.Output, "compile error")
}

func TestRefreshWithoutCommandIsNoop(t *testing.T) {
	client, _ := newTestClient(t, Commands{})
	assert.NoError(t, client.Refresh(context.Background(), "sim-a"))
}

func TestMissingCommandIsConfigurationError(t *testing.T) {
	client, _ := newTestClient(t, Commands{})
	err := client.Build(context.Background(), "sim-a", []string{"standard"})
	require.Error(t, err)
	assert.True(t, IsPipelineError(err))
}

func TestNormalizeVersion(t *testing.T) {
	assert.Equal(t, "1.2.7", NormalizeVersion("1.2.7"))
	assert.Equal(t, "1.2.0", NormalizeVersion("1.2"))
	assert.Equal(t, "2026-03-14-a", NormalizeVersion("2026-03-14-a"))
}

func TestCompareVersions(t *testing.T) {
	assert.Negative(t, CompareVersions("1.2.7", "1.10.0"))
	assert.Positive(t, CompareVersions("2.0.0", "1.10.0"))
	assert.Zero(t, CompareVersions("1.2.7", "1.2.7"))
}
