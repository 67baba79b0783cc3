package config

import "fmt"

// Builder orchestrates config assembly from its sources. Sources are merged
// in the order they are added; later sources override earlier ones. Build
// applies defaults and validates the merged result.
type Builder interface {
	FromEnv() Builder
	FromFlags(fc *FlagConfig) Builder
	FromFile(path string) Builder
	Build() (*Config, error)
}

type source func() (*Config, error)

type builder struct {
	sources []source
}

// NewBuilder returns an empty configuration builder.
func NewBuilder() Builder {
	return &builder{}
}

func (b *builder) FromEnv() Builder {
	b.sources = append(b.sources, FromEnv)
	return b
}

func (b *builder) FromFlags(fc *FlagConfig) Builder {
	b.sources = append(b.sources, func() (*Config, error) {
		if fc == nil {
			return New(), nil
		}
		return fc.ToConfig()
	})
	return b
}

func (b *builder) FromFile(path string) Builder {
	b.sources = append(b.sources, func() (*Config, error) {
		if path == "" {
			return New(), nil
		}
		return LoadFromFile(path)
	})
	return b
}

func (b *builder) Build() (*Config, error) {
	merged := New()

	for _, load := range b.sources {
		cfg, err := load()
		if err != nil {
			return nil, err
		}
		var mergeErr error
		merged, mergeErr = Merge(merged, cfg)
		if mergeErr != nil {
			return nil, mergeErr
		}
	}

	if err := ApplyDefaults(merged); err != nil {
		return nil, err
	}
	if err := Validate(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Merge overlays override onto base and returns the combined configuration.
// String and duration fields override when non-zero; boolean fields override
// only when the source recorded them as explicitly set.
func Merge(base, override *Config) (*Config, error) {
	if base == nil && override == nil {
		return nil, fmt.Errorf("config: cannot merge two nil configs")
	}
	if base == nil {
		return override, nil
	}
	if override == nil {
		return base, nil
	}

	merged := *base

	if override.Workspace.Path != "" {
		merged.Workspace.Path = override.Workspace.Path
	}
	if override.Workspace.Mainline != "" {
		merged.Workspace.Mainline = override.Workspace.Mainline
	}
	if override.Workspace.ReposFile != "" {
		merged.Workspace.ReposFile = override.Workspace.ReposFile
	}

	if override.Git.DependencyBranchPrefix != "" {
		merged.Git.DependencyBranchPrefix = override.Git.DependencyBranchPrefix
	}

	if override.Fleet.Source != "" {
		merged.Fleet.Source = override.Fleet.Source
	}
	if override.Fleet.GitHub.Token != "" {
		merged.Fleet.GitHub.Token = override.Fleet.GitHub.Token
	}
	if override.Fleet.GitHub.Endpoint != "" {
		merged.Fleet.GitHub.Endpoint = override.Fleet.GitHub.Endpoint
	}
	if override.Fleet.GitHub.Organization != "" {
		merged.Fleet.GitHub.Organization = override.Fleet.GitHub.Organization
	}

	if override.Pipeline.Refresh != "" {
		merged.Pipeline.Refresh = override.Pipeline.Refresh
	}
	if override.Pipeline.Build != "" {
		merged.Pipeline.Build = override.Pipeline.Build
	}
	if override.Pipeline.Deploy != "" {
		merged.Pipeline.Deploy = override.Pipeline.Deploy
	}
	if override.Pipeline.Descriptor != "" {
		merged.Pipeline.Descriptor = override.Pipeline.Descriptor
	}
	if override.Pipeline.Timeout > 0 {
		merged.Pipeline.Timeout = override.Pipeline.Timeout
	}

	if override.Logging.Level != "" {
		merged.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		merged.Logging.Format = override.Logging.Format
	}
	if override.loggingVerboseSet() {
		merged.setLoggingVerbose(override.Logging.Verbose)
	}
	if override.loggingQuietSet() {
		merged.setLoggingQuiet(override.Logging.Quiet)
	}

	if override.State.Dir != "" {
		merged.State.Dir = override.State.Dir
	}

	if override.dryRunSet() {
		merged.setDryRun(override.DryRun)
	}

	return &merged, nil
}
