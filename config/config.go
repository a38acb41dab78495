package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"scorekeeper/adapters/redis"
	"scorekeeper/adapters/sqlx"
	"scorekeeper/core"
	"scorekeeper/export"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds the complete application configuration
type Config struct {
	// Environment and profile settings
	Environment Environment `json:"environment" yaml:"environment" env:"SCOREKEEPER_ENV"`
	Profile     string      `json:"profile" yaml:"profile" env:"SCOREKEEPER_PROFILE"`

	// Server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Ranking sizes and demo data
	Leaderboard LeaderboardConfig `json:"leaderboard" yaml:"leaderboard"`

	// Export document settings
	Export ExportConfig `json:"export" yaml:"export"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Metrics and monitoring
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Security configuration
	Security SecurityConfig `json:"security" yaml:"security"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address           string        `json:"address" yaml:"address" env:"SCOREKEEPER_SERVER_ADDR"`
	PathPrefix        string        `json:"path_prefix" yaml:"path_prefix" env:"SCOREKEEPER_SERVER_PATH_PREFIX"`
	CORSOrigin        string        `json:"cors_origin" yaml:"cors_origin" env:"SCOREKEEPER_SERVER_CORS_ORIGIN"`
	StaticDir         string        `json:"static_dir" yaml:"static_dir" env:"SCOREKEEPER_SERVER_STATIC_DIR"`
	ReadTimeout       time.Duration `json:"read_timeout" yaml:"read_timeout" env:"SCOREKEEPER_SERVER_READ_TIMEOUT"`
	WriteTimeout      time.Duration `json:"write_timeout" yaml:"write_timeout" env:"SCOREKEEPER_SERVER_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `json:"idle_timeout" yaml:"idle_timeout" env:"SCOREKEEPER_SERVER_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" yaml:"read_header_timeout" env:"SCOREKEEPER_SERVER_READ_HEADER_TIMEOUT"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" env:"SCOREKEEPER_SERVER_SHUTDOWN_TIMEOUT"`
}

// StorageConfig holds storage adapter configuration
type StorageConfig struct {
	Adapter string       `json:"adapter" yaml:"adapter" env:"SCOREKEEPER_STORAGE_ADAPTER"`
	Redis   redis.Config `json:"redis,omitempty" yaml:"redis,omitempty"`
	SQL     sqlx.Config  `json:"sql,omitempty" yaml:"sql,omitempty"`
	File    FileConfig   `json:"file,omitempty" yaml:"file,omitempty"`
}

// FileConfig holds JSON file storage configuration
type FileConfig struct {
	Path string `json:"path" yaml:"path" env:"SCOREKEEPER_STORAGE_FILE_PATH"`
}

// LeaderboardConfig bounds what is kept and what is shown.
type LeaderboardConfig struct {
	RetentionCap int  `json:"retention_cap" yaml:"retention_cap" env:"SCOREKEEPER_LEADERBOARD_RETENTION_CAP"`
	TopLimit     int  `json:"top_limit" yaml:"top_limit" env:"SCOREKEEPER_LEADERBOARD_TOP_LIMIT"`
	ExportLimit  int  `json:"export_limit" yaml:"export_limit" env:"SCOREKEEPER_LEADERBOARD_EXPORT_LIMIT"`
	SeedDemo     bool `json:"seed_demo" yaml:"seed_demo" env:"SCOREKEEPER_LEADERBOARD_SEED_DEMO"`
}

// ExportConfig holds export document settings
type ExportConfig struct {
	Title          string `json:"title" yaml:"title" env:"SCOREKEEPER_EXPORT_TITLE"`
	Locale         string `json:"locale" yaml:"locale" env:"SCOREKEEPER_EXPORT_LOCALE"`
	TimeZone       string `json:"time_zone" yaml:"time_zone" env:"SCOREKEEPER_EXPORT_TIME_ZONE"`
	FilenamePrefix string `json:"filename_prefix" yaml:"filename_prefix" env:"SCOREKEEPER_EXPORT_FILENAME_PREFIX"`
}

// Location resolves TimeZone; empty means UTC. DefaultConfig uses America/Sao_Paulo.
func (e ExportConfig) Location() (*time.Location, error) {
	if e.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(e.TimeZone)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string            `json:"level" yaml:"level" env:"SCOREKEEPER_LOG_LEVEL"`
	Format     string            `json:"format" yaml:"format" env:"SCOREKEEPER_LOG_FORMAT"`
	Output     string            `json:"output" yaml:"output" env:"SCOREKEEPER_LOG_OUTPUT"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty" env:"SCOREKEEPER_LOG_ATTRIBUTES"`
}

// MetricsConfig holds metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" env:"SCOREKEEPER_METRICS_ENABLED"`
	Address string `json:"address" yaml:"address" env:"SCOREKEEPER_METRICS_ADDR"`
	Path    string `json:"path" yaml:"path" env:"SCOREKEEPER_METRICS_PATH"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	EnableRateLimit bool            `json:"enable_rate_limit" yaml:"enable_rate_limit" env:"SCOREKEEPER_SECURITY_RATE_LIMIT_ENABLED"`
	RateLimit       RateLimitConfig `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute" env:"SCOREKEEPER_SECURITY_RATE_LIMIT_RPM"`
	BurstSize         int `json:"burst_size" yaml:"burst_size" env:"SCOREKEEPER_SECURITY_RATE_LIMIT_BURST"`
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Load from environment variables
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validateConfigPath validates that the config file path is safe
func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("config file path cannot be empty")
	}

	cleanPath := filepath.Clean(path)

	switch strings.ToLower(filepath.Ext(cleanPath)) {
	case ".json", ".yaml", ".yml":
	default:
		return errors.New("config file must have .json, .yaml or .yml extension")
	}

	if _, err := os.Stat(cleanPath); err != nil {
		return fmt.Errorf("config file not accessible: %w", err)
	}

	return nil
}

// LoadFromFile loads configuration from a JSON or YAML file
func LoadFromFile(path string) (*Config, error) {
	// Validate the path for security
	if err := validateConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}

	// Open the file safely after validation
	file, err := os.Open(path) // #nosec G304 - Path validated above
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Environment variables override file values
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Profile:     "default",
		Server: ServerConfig{
			Address:           ":3000",
			PathPrefix:        "/api",
			CORSOrigin:        "*",
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Storage: StorageConfig{
			Adapter: "memory",
			Redis:   redis.DefaultConfig(),
			SQL:     sqlx.DefaultConfig(sqlx.DriverSQLite),
			File: FileConfig{
				Path: "./data/scores.json",
			},
		},
		Leaderboard: LeaderboardConfig{
			RetentionCap: core.DefaultRetentionCap,
			TopLimit:     10,
			ExportLimit:  export.DefaultLimit,
			SeedDemo:     true,
		},
		Export: ExportConfig{
			Title:          "",
			Locale:         "pt-BR",
			TimeZone:       "America/Sao_Paulo",
			FilenamePrefix: "ranking",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9090",
			Path:    "/metrics",
		},
		Security: SecurityConfig{
			EnableRateLimit: false,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 60,
				BurstSize:         10,
			},
		},
	}
}

// Validate validates the configuration and returns detailed error messages
func (c *Config) Validate() error {
	var errs []string

	// Validate environment
	if c.Environment == "" {
		errs = append(errs, "environment cannot be empty")
	}

	sections := []struct {
		name string
		fn   func() error
	}{
		{"server", c.Server.Validate},
		{"storage", c.Storage.Validate},
		{"leaderboard", c.Leaderboard.Validate},
		{"export", c.Export.Validate},
		{"logging", c.Logging.Validate},
		{"metrics", c.Metrics.Validate},
		{"security", c.Security.Validate},
	}
	for _, s := range sections {
		if err := s.fn(); err != nil {
			errs = append(errs, fmt.Sprintf("%s config: %v", s.name, err))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// String returns a JSON representation of the config (with secrets redacted)
func (c *Config) String() string {
	// Create a copy for redaction
	cfg := *c

	// Redact sensitive information
	if cfg.Storage.SQL.DSN != "" {
		cfg.Storage.SQL.DSN = "[REDACTED]"
	}
	if cfg.Storage.Redis.Password != "" {
		cfg.Storage.Redis.Password = "[REDACTED]"
	}

	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}
