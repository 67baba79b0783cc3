package config

// setDryRun records an explicit dry-run value originating from a configuration source.
func (c *Config) setDryRun(value bool) {
	if c == nil {
		return
	}
	c.DryRun = value
	c.setFlags.dryRun = true
}

func (c *Config) dryRunSet() bool {
	if c == nil {
		return false
	}
	return c.setFlags.dryRun
}

// setLoggingVerbose records an explicit verbose flag value from configuration.
func (c *Config) setLoggingVerbose(value bool) {
	if c == nil {
		return
	}
	c.Logging.Verbose = value
	c.setFlags.loggingVerbose = true
}

func (c *Config) loggingVerboseSet() bool {
	if c == nil {
		return false
	}
	return c.setFlags.loggingVerbose
}

// setLoggingQuiet records an explicit quiet flag value from configuration.
func (c *Config) setLoggingQuiet(value bool) {
	if c == nil {
		return
	}
	c.Logging.Quiet = value
	c.setFlags.loggingQuiet = true
}

func (c *Config) loggingQuietSet() bool {
	if c == nil {
		return false
	}
	return c.setFlags.loggingQuiet
}
