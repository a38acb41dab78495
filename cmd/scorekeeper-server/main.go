package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"scorekeeper/metrics"
	"scorekeeper/scoreboard"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %v\n", err)
	}

	configFile := flag.String("config", os.Getenv("SCOREKEEPER_CONFIG_FILE"), "Path to a JSON or YAML configuration file")
	flag.Parse()

	ctx := context.Background()
	app, err := BuildApp(ctx, ConfigPath(*configFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	cfg := app.Config

	slog.Info("starting scorekeeper server",
		"environment", cfg.Environment,
		"profile", cfg.Profile,
		"address", cfg.Server.Address,
		"storage_adapter", cfg.Storage.Adapter,
		"retention_cap", cfg.Leaderboard.RetentionCap)

	if cfg.Leaderboard.SeedDemo {
		n, err := scoreboard.SeedIfEmpty(ctx, app.Service)
		if err != nil {
			slog.Error("failed to seed demo scores", "error", err)
		} else if n > 0 {
			slog.Info("seeded demo scores", "count", n)
		}
	}
	if held, err := app.Service.Count(ctx); err == nil {
		app.Recorder.SetHeld(held)
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler(app.Registry))
		metricsSrv = &http.Server{Addr: cfg.Metrics.Address, Handler: mux, ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout}
		go func() {
			slog.Info("metrics listening", "address", cfg.Metrics.Address, "path", cfg.Metrics.Path)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err)
			}
		}()
	}

	srv := app.Server

	// Start server in a goroutine
	go func() {
		slog.Info("server listening", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				return
			}
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server", "timeout", cfg.Server.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)

	exitCode := 0
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("error during server shutdown", "error", err)
		exitCode = 1
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	if err := app.Service.Close(); err != nil {
		slog.Error("error closing storage", "error", err)
		exitCode = 1
	}

	cancel()

	slog.Info("server stopped")
	os.Exit(exitCode)
}
