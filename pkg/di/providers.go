package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goliatone/backport/internal/buildsrv"
	"github.com/goliatone/backport/internal/campaign"
	"github.com/goliatone/backport/internal/fleet"
	"github.com/goliatone/backport/internal/gitops"
	"github.com/goliatone/backport/internal/store"
	"github.com/goliatone/backport/pkg/config"
	"github.com/goliatone/backport/pkg/workspace"
)

// provideWorkspaceRoot resolves the fleet working copy directory and makes
// sure it exists.
func provideWorkspaceRoot(cfg *config.Config) (string, error) {
	root := workspace.ResolveForConfig(cfg)
	if err := workspace.Ensure(root); err != nil {
		return "", err
	}
	return root, nil
}

// provideConfigWithDefaults loads configuration from the environment,
// applies defaults, and validates the result.
func provideConfigWithDefaults() (*config.Config, error) {
	return config.NewBuilder().FromEnv().Build()
}

// provideHTTPClient creates the shared HTTP client for API integrations.
func provideHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
	}
}

// provideStoreWithConfig wires the campaign document store: filesystem
// storage plus an advisory lock in the same directory.
func provideStoreWithConfig(cfg *config.Config, logger Logger) (store.Manager, error) {
	dir, err := store.StateDir(cfg.State.Dir)
	if err != nil {
		return nil, err
	}

	storage, err := store.NewFilesystemStorage(dir, logger)
	if err != nil {
		return nil, err
	}

	return store.NewManager(
		store.WithStorage(storage),
		store.WithLocker(store.NewFilesystemLocker(dir, logger)),
		store.WithLogger(logger),
	), nil
}

// provideGitWithConfig wires git operations against the workspace checkouts.
func provideGitWithConfig(root string, logger Logger) gitops.Git {
	return gitops.New(root, logger)
}

// providePipelineWithConfig wires the build pipeline client from the
// configured fleet commands.
func providePipelineWithConfig(cfg *config.Config, root string, logger Logger) buildsrv.Client {
	commands := buildsrv.Commands{
		Refresh:    cfg.Pipeline.Refresh,
		Build:      cfg.Pipeline.Build,
		Deploy:     cfg.Pipeline.Deploy,
		Descriptor: cfg.Pipeline.Descriptor,
	}
	return buildsrv.NewCommandClient(root, commands, cfg.Pipeline.Timeout, logger)
}

// provideFleetWithConfig wires release branch discovery. Local discovery
// reads descriptors from the workspace checkouts; github discovery queries
// the API for the configured organization.
func provideFleetWithConfig(cfg *config.Config, root string, git gitops.Git, logger Logger) (fleet.Resolver, error) {
	repos, err := provideActiveRepos(cfg, root)
	if err != nil {
		return nil, err
	}

	switch cfg.Fleet.Source {
	case "github":
		client, err := fleet.NewGitHubClient(context.Background(), cfg.Fleet.GitHub.Token, cfg.Fleet.GitHub.Endpoint)
		if err != nil {
			return nil, err
		}
		return fleet.NewGitHubResolver(client, cfg.Fleet.GitHub.Organization, repos, logger), nil
	case "local", "":
		return fleet.NewLocalResolver(root, repos, git, logger), nil
	default:
		return nil, fmt.Errorf("unknown fleet source %q", cfg.Fleet.Source)
	}
}

// provideActiveRepos loads the active repository list, falling back to the
// workspace directory contents when no list file is configured.
func provideActiveRepos(cfg *config.Config, root string) ([]string, error) {
	if cfg.Workspace.ReposFile != "" {
		return fleet.LoadActiveRepos(cfg.Workspace.ReposFile)
	}
	return fleet.DiscoverWorkspaceRepos(root)
}

// provideCampaignWithConfig wires the campaign service from its resolved
// collaborators.
func provideCampaignWithConfig(cfg *config.Config, mgr store.Manager, git gitops.Git, pipeline buildsrv.Client, resolver fleet.Resolver, logger Logger) (*campaign.Service, error) {
	return campaign.NewService(mgr, git, pipeline, resolver,
		campaign.WithLogger(logger),
		campaign.WithMainline(cfg.Workspace.Mainline),
		campaign.WithDependencyBranchPrefix(cfg.Git.DependencyBranchPrefix),
		campaign.WithDryRun(cfg.DryRun),
	)
}
