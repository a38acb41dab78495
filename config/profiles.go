package config

import (
	"fmt"
	"time"
)

// KnownProfile reports whether name is one of the built-in deployment profiles.
func KnownProfile(name string) bool {
	switch Environment(name) {
	case EnvDevelopment, EnvTesting, EnvStaging, EnvProduction:
		return true
	}
	return false
}

// LoadProfile returns the defaults for a named deployment profile, with
// environment overrides applied and validated.
func LoadProfile(name string) (*Config, error) {
	cfg := DefaultConfig()
	switch Environment(name) {
	case EnvDevelopment:
		cfg.Logging.Format = "text"
		cfg.Logging.Level = "debug"
	case EnvTesting:
		cfg.Leaderboard.SeedDemo = false
		cfg.Logging.Level = "warn"
	case EnvStaging:
		cfg.Storage.Adapter = "sql"
		cfg.Metrics.Enabled = true
	case EnvProduction:
		cfg.Storage.Adapter = "sql"
		cfg.Leaderboard.SeedDemo = false
		cfg.Metrics.Enabled = true
		cfg.Security.EnableRateLimit = true
		cfg.Server.ShutdownTimeout = 15 * time.Second
	default:
		return nil, fmt.Errorf("unknown profile %q", name)
	}
	cfg.Environment = Environment(name)
	cfg.Profile = name

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
