package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirenia/clear-dark-sky/internal/api"
	"github.com/kirenia/clear-dark-sky/internal/config"
	"github.com/kirenia/clear-dark-sky/internal/logging"
	"github.com/kirenia/clear-dark-sky/internal/sites"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, closer, err := logging.New(os.Stdout, logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		os.Stderr.WriteString("invalid logging configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	if cfg.AuthEnabled {
		logger.Info("auth enabled")
	}
	logger.Info("darkness config",
		"max_hours", cfg.DarknessMaxHours,
		"workers", cfg.DarknessWorkers,
	)
	logger.Info("stream config",
		"interval_seconds", cfg.StreamInterval.Seconds(),
		"keepalive_interval_seconds", cfg.StreamKeepalive.Seconds(),
		"max_concurrent_per_ip", cfg.StreamMaxConcurrent,
	)

	catalog := sites.NewStore()
	if cfg.SitesFile != "" {
		if err := catalog.Load(cfg.SitesFile, logger); err != nil {
			logger.Error("failed to load site catalog", "path", cfg.SitesFile, "error", err)
			os.Exit(1)
		}
	}

	srv := api.NewServer(cfg, logger, nil, catalog)

	// Shutdown cancels request contexts so open sky streams end.
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()
	srv.HTTPServer().BaseContext = func(net.Listener) context.Context { return baseCtx }
	srv.HTTPServer().RegisterOnShutdown(cancelRequests)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go srv.Start(ctx)

	if cfg.SitesFile != "" {
		go func() {
			if err := sites.Watch(ctx, cfg.SitesFile, catalog, logger); err != nil {
				logger.Warn("site catalog watcher stopped", "error", err)
			}
		}()
	}

	go func() {
		logger.Info("starting server",
			"addr", cfg.HTTPAddr,
			"auth_enabled", cfg.AuthEnabled,
			"rate_limit_rps", cfg.RateLimitRPS,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
