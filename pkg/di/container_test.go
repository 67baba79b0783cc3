package di_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/backport/internal/fleet"
	"github.com/goliatone/backport/internal/store"
	"github.com/goliatone/backport/pkg/config"
	"github.com/goliatone/backport/pkg/di"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.Workspace.Path = t.TempDir()
	cfg.State.Dir = t.TempDir()
	if err := config.ApplyDefaults(cfg); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestNewContainerWithDefaults(t *testing.T) {
	container, err := di.New(di.WithConfig(testConfig(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	assert.NotNil(t, container.Campaign())
	assert.NotNil(t, container.Store())
	assert.NotNil(t, container.Git())
	assert.NotNil(t, container.Pipeline())
	assert.NotNil(t, container.Fleet())
	assert.NotNil(t, container.Config())
	assert.NotNil(t, container.Logger())
	assert.NotNil(t, container.HTTPClient())
}

type stubResolver struct{}

func (stubResolver) ReleaseBranches(context.Context) ([]fleet.ReleaseBranch, error) {
	return nil, nil
}

func (stubResolver) Resolve(context.Context, string, string) (*fleet.ReleaseBranch, error) {
	return nil, fleet.ErrBranchNotFound
}

func TestNewContainerHonoursOverrides(t *testing.T) {
	mgr := store.NewManager(store.WithStorage(store.NewMemoryStorage()))
	resolver := stubResolver{}

	container, err := di.New(
		di.WithConfig(testConfig(t)),
		di.WithStoreManager(mgr),
		di.WithFleetResolver(resolver),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	assert.Equal(t, mgr, container.Store())
	assert.Equal(t, resolver, container.Fleet())
}

func TestNewContainerRejectsNilOverrides(t *testing.T) {
	_, err := di.New(di.WithStoreManager(nil))
	require.Error(t, err)

	_, err = di.New(di.WithLogger(nil))
	require.Error(t, err)
}

func TestContainerGitHubFleetRequiresNoNetwork(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fleet.Source = "github"
	cfg.Fleet.GitHub.Organization = "simfleet"

	container, err := di.New(di.WithConfig(cfg))
	require.NoError(t, err, "client construction must not call the API")
	t.Cleanup(func() { _ = container.Close() })
	assert.NotNil(t, container.Fleet())
}
