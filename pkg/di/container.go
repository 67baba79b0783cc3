package di

import (
	"fmt"
	"net/http"

	"github.com/goliatone/backport/internal/buildsrv"
	"github.com/goliatone/backport/internal/campaign"
	"github.com/goliatone/backport/internal/fleet"
	"github.com/goliatone/backport/internal/gitops"
	"github.com/goliatone/backport/internal/store"
	"github.com/goliatone/backport/pkg/config"
)

// Logger defines the logging interface used throughout the application.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Container exposes resolved dependencies for the CLI orchestration layer.
// All methods return interfaces to prevent leaking concrete implementations.
type Container interface {
	// Core service accessors
	Campaign() *campaign.Service
	Store() store.Manager
	Git() gitops.Git
	Pipeline() buildsrv.Client
	Fleet() fleet.Resolver

	// Configuration and infrastructure
	Config() *config.Config
	Logger() Logger
	HTTPClient() *http.Client

	// Resource management
	Close() error
}

// Option customises container construction using the functional options pattern.
// Options allow overriding default dependencies for testing and customization.
type Option func(*builder) error

// New creates a container with default wiring and applies the provided options.
// It returns an error if required dependencies are missing or if any option fails.
func New(opts ...Option) (Container, error) {
	b := &builder{}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, fmt.Errorf("di: failed to apply option: %w", err)
		}
	}

	return b.build()
}

// builder holds the dependencies being assembled into a container.
type builder struct {
	cfg *config.Config

	logger     Logger
	httpClient *http.Client

	storeManager store.Manager
	git          gitops.Git
	pipeline     buildsrv.Client
	resolver     fleet.Resolver
	service      *campaign.Service
}

// container implements the Container interface with concrete dependencies.
type container struct {
	cfg          *config.Config
	logger       Logger
	httpClient   *http.Client
	storeManager store.Manager
	git          gitops.Git
	pipeline     buildsrv.Client
	resolver     fleet.Resolver
	service      *campaign.Service
}

// Core service accessors
func (c *container) Campaign() *campaign.Service { return c.service }
func (c *container) Store() store.Manager        { return c.storeManager }
func (c *container) Git() gitops.Git             { return c.git }
func (c *container) Pipeline() buildsrv.Client   { return c.pipeline }
func (c *container) Fleet() fleet.Resolver       { return c.resolver }

// Configuration and infrastructure accessors
func (c *container) Config() *config.Config   { return c.cfg }
func (c *container) Logger() Logger           { return c.logger }
func (c *container) HTTPClient() *http.Client { return c.httpClient }

// Close performs cleanup of container resources. It closes any services
// that implement io.Closer, aggregating errors.
func (c *container) Close() error {
	var errs []error

	if closer, ok := c.storeManager.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store manager close: %w", err))
		}
	}

	if closer, ok := c.resolver.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("fleet resolver close: %w", err))
		}
	}

	if c.httpClient != nil && c.httpClient.Transport != nil {
		if closer, ok := c.httpClient.Transport.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("http client transport close: %w", err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}

// build assembles the container with all dependencies resolved. Missing
// dependencies are constructed from configuration; configuration itself is
// resolved first because everything else depends on it.
func (b *builder) build() (Container, error) {
	if b.cfg == nil {
		var err error
		b.cfg, err = provideConfigWithDefaults()
		if err != nil {
			return nil, fmt.Errorf("di: failed to provide default config: %w", err)
		}
	}

	if b.logger == nil {
		b.logger = provideLoggerWithConfig(b.cfg)
	}

	if b.httpClient == nil {
		b.httpClient = provideHTTPClient()
	}

	if b.storeManager == nil {
		mgr, err := provideStoreWithConfig(b.cfg, b.logger)
		if err != nil {
			return nil, fmt.Errorf("di: failed to provide store manager: %w", err)
		}
		b.storeManager = mgr
	}

	// Workspace resolution only matters when a default collaborator needs it.
	if b.git == nil || b.pipeline == nil || b.resolver == nil {
		root, err := provideWorkspaceRoot(b.cfg)
		if err != nil {
			return nil, fmt.Errorf("di: failed to resolve workspace: %w", err)
		}

		if b.git == nil {
			b.git = provideGitWithConfig(root, b.logger)
		}

		if b.pipeline == nil {
			b.pipeline = providePipelineWithConfig(b.cfg, root, b.logger)
		}

		if b.resolver == nil {
			resolver, err := provideFleetWithConfig(b.cfg, root, b.git, b.logger)
			if err != nil {
				return nil, fmt.Errorf("di: failed to provide fleet resolver: %w", err)
			}
			b.resolver = resolver
		}
	}

	if b.service == nil {
		service, err := provideCampaignWithConfig(b.cfg, b.storeManager, b.git, b.pipeline, b.resolver, b.logger)
		if err != nil {
			return nil, fmt.Errorf("di: failed to provide campaign service: %w", err)
		}
		b.service = service
	}

	return &container{
		cfg:          b.cfg,
		logger:       b.logger,
		httpClient:   b.httpClient,
		storeManager: b.storeManager,
		git:          b.git,
		pipeline:     b.pipeline,
		resolver:     b.resolver,
		service:      b.service,
	}, nil
}

// Configuration options

// WithConfig injects an explicit configuration object into the container.
// If not provided, the container will attempt to load configuration from
// environment variables and default values.
func WithConfig(cfg *config.Config) Option {
	return func(b *builder) error {
		if cfg == nil {
			return fmt.Errorf("config cannot be nil")
		}
		b.cfg = cfg
		return nil
	}
}

// WithLogger injects a custom logger into the container.
// Useful for testing or when using a specific logging framework.
func WithLogger(logger Logger) Option {
	return func(b *builder) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		b.logger = logger
		return nil
	}
}

// WithHTTPClient injects a custom HTTP client into the container.
func WithHTTPClient(client *http.Client) Option {
	return func(b *builder) error {
		if client == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		b.httpClient = client
		return nil
	}
}

// Core service override options for testing

// WithStoreManager injects a custom store manager implementation.
func WithStoreManager(mgr store.Manager) Option {
	return func(b *builder) error {
		if mgr == nil {
			return fmt.Errorf("store manager cannot be nil")
		}
		b.storeManager = mgr
		return nil
	}
}

// WithGit injects a custom git operations implementation.
func WithGit(git gitops.Git) Option {
	return func(b *builder) error {
		if git == nil {
			return fmt.Errorf("git operations cannot be nil")
		}
		b.git = git
		return nil
	}
}

// WithPipeline injects a custom build pipeline client implementation.
func WithPipeline(client buildsrv.Client) Option {
	return func(b *builder) error {
		if client == nil {
			return fmt.Errorf("pipeline client cannot be nil")
		}
		b.pipeline = client
		return nil
	}
}

// WithFleetResolver injects a custom fleet resolver implementation.
func WithFleetResolver(resolver fleet.Resolver) Option {
	return func(b *builder) error {
		if resolver == nil {
			return fmt.Errorf("fleet resolver cannot be nil")
		}
		b.resolver = resolver
		return nil
	}
}
