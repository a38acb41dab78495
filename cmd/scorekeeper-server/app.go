package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"scorekeeper/adapters/jsonfile"
	mem "scorekeeper/adapters/memory"
	redisAdapter "scorekeeper/adapters/redis"
	sqlxAdapter "scorekeeper/adapters/sqlx"
	"scorekeeper/api/httpapi"
	"scorekeeper/config"
	"scorekeeper/engine"
	"scorekeeper/export"
	"scorekeeper/metrics"
	"scorekeeper/scoreboard"
)

// ConfigPath is the optional config file; empty means environment only.
type ConfigPath string

// App aggregates the assembled server components.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Recorder *metrics.Recorder
	Service  *engine.ScoreService
	Handler  http.Handler
	Server   *http.Server
}

// provideConfig reads the config file when one is given. Otherwise a known
// SCOREKEEPER_PROFILE selects that profile's defaults before env overrides.
func provideConfig(path ConfigPath) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(string(path))
	}
	if name := os.Getenv("SCOREKEEPER_PROFILE"); config.KnownProfile(name) {
		return config.LoadProfile(name)
	}
	return config.Load()
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func provideRecorder(reg *prometheus.Registry) (*metrics.Recorder, error) {
	return metrics.NewRecorder(reg)
}

func provideRepository(ctx context.Context, cfg *config.Config) (engine.Repository, error) {
	return setupStorage(ctx, cfg)
}

func provideFormatter(cfg *config.Config) (*export.Formatter, error) {
	loc, err := cfg.Export.Location()
	if err != nil {
		return nil, fmt.Errorf("export time zone: %w", err)
	}
	return export.NewFormatter(export.Options{
		Title:          cfg.Export.Title,
		FilenamePrefix: cfg.Export.FilenamePrefix,
		Location:       loc,
		DefaultLocale:  cfg.Export.Locale,
	}), nil
}

func provideService(cfg *config.Config, logger *slog.Logger, repo engine.Repository, formatter *export.Formatter, rec *metrics.Recorder) *engine.ScoreService {
	svc := scoreboard.New(
		scoreboard.WithRepository(repo),
		scoreboard.WithDispatchMode(engine.DispatchAsync),
		scoreboard.WithFormatter(formatter),
		scoreboard.WithLimits(engine.Limits{Top: cfg.Leaderboard.TopLimit, Export: cfg.Leaderboard.ExportLimit}),
		scoreboard.WithHook(scoreboard.AuditHook(logger)),
	)
	rec.Attach(svc)
	return svc
}

func provideHandler(svc *engine.ScoreService, logger *slog.Logger, cfg *config.Config) http.Handler {
	return httpapi.NewRouter(svc, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
		StaticDir:        cfg.Server.StaticDir,
		Logger:           logger,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func convertAttributes(attrs map[string]string) []slog.Attr {
	result := make([]slog.Attr, 0, len(attrs))
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage opens the repository selected by cfg.Storage.Adapter.
func setupStorage(ctx context.Context, cfg *config.Config) (engine.Repository, error) {
	capacity := cfg.Leaderboard.RetentionCap
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(capacity), nil
	case "file":
		return jsonfile.New(cfg.Storage.File.Path, capacity)
	case "redis":
		return redisAdapter.New(cfg.Storage.Redis, capacity)
	case "sql":
		return sqlxAdapter.New(ctx, cfg.Storage.SQL, capacity)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
