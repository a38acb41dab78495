package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

func joinErrs(errs []string) error {
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func oneOf(field, value string, valid []string) string {
	if slices.Contains(valid, value) {
		return ""
	}
	return fmt.Sprintf("%s must be one of: %s", field, strings.Join(valid, ", "))
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	var errs []string

	if s.Address == "" {
		errs = append(errs, "address cannot be empty")
	}

	timeouts := []struct {
		name string
		ok   bool
	}{
		{"read_timeout", s.ReadTimeout > 0},
		{"write_timeout", s.WriteTimeout > 0},
		{"idle_timeout", s.IdleTimeout > 0},
		{"read_header_timeout", s.ReadHeaderTimeout > 0},
		{"shutdown_timeout", s.ShutdownTimeout > 0},
	}
	for _, t := range timeouts {
		if !t.ok {
			errs = append(errs, t.name+" must be positive")
		}
	}

	return joinErrs(errs)
}

// Validate validates storage configuration
func (s *StorageConfig) Validate() error {
	var errs []string

	if msg := oneOf("adapter", s.Adapter, []string{"memory", "file", "sql", "redis"}); msg != "" {
		errs = append(errs, msg)
	}

	// Validate adapter-specific configs
	switch s.Adapter {
	case "file":
		if err := s.File.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("file config: %v", err))
		}
	case "sql":
		if err := s.SQL.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("sql config: %v", err))
		}
	case "redis":
		if s.Redis.Addr == "" {
			errs = append(errs, "redis config: addr cannot be empty")
		}
	}

	return joinErrs(errs)
}

// Validate validates file storage configuration
func (f *FileConfig) Validate() error {
	if f.Path == "" {
		return errors.New("path cannot be empty")
	}
	return nil
}

// Validate validates ranking sizes
func (l *LeaderboardConfig) Validate() error {
	var errs []string
	if l.RetentionCap <= 0 {
		errs = append(errs, "retention_cap must be positive")
	}
	if l.TopLimit <= 0 {
		errs = append(errs, "top_limit must be positive")
	}
	if l.ExportLimit <= 0 {
		errs = append(errs, "export_limit must be positive")
	}
	return joinErrs(errs)
}

// Validate validates export settings
func (e *ExportConfig) Validate() error {
	var errs []string
	if _, err := language.Parse(e.Locale); err != nil {
		errs = append(errs, fmt.Sprintf("locale %q is not a BCP 47 tag", e.Locale))
	}
	if _, err := e.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("time_zone: %v", err))
	}
	if strings.ContainsAny(e.FilenamePrefix, `/\`) {
		errs = append(errs, "filename_prefix cannot contain path separators")
	}
	return joinErrs(errs)
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	var errs []string
	for _, msg := range []string{
		oneOf("level", l.Level, []string{"debug", "info", "warn", "error"}),
		oneOf("format", l.Format, []string{"json", "text"}),
		oneOf("output", l.Output, []string{"stdout", "stderr"}),
	} {
		if msg != "" {
			errs = append(errs, msg)
		}
	}
	return joinErrs(errs)
}

// Validate validates metrics configuration
func (m *MetricsConfig) Validate() error {
	var errs []string

	if m.Enabled {
		if m.Address == "" {
			errs = append(errs, "address cannot be empty when metrics are enabled")
		}

		if m.Path == "" {
			errs = append(errs, "path cannot be empty when metrics are enabled")
		}
	}

	return joinErrs(errs)
}

// Validate validates security settings.
func (s *SecurityConfig) Validate() error {
	var errs []string
	if s.EnableRateLimit {
		if s.RateLimit.RequestsPerMinute <= 0 {
			errs = append(errs, "rate_limit.requests_per_minute must be > 0 when rate limiting is enabled")
		}
		if s.RateLimit.BurstSize <= 0 {
			errs = append(errs, "rate_limit.burst_size must be > 0 when rate limiting is enabled")
		}
	}
	return joinErrs(errs)
}
