package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/docdesk/internal/adapters/view/terminal"
	"github.com/kirillkom/docdesk/internal/bootstrap"
	"github.com/kirillkom/docdesk/internal/config"
	"github.com/kirillkom/docdesk/internal/core/usecase"
	"github.com/kirillkom/docdesk/internal/infrastructure/watcher"
	"github.com/kirillkom/docdesk/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Resolve()
	logger := logging.New(os.Stderr, "docdesk-watch", cfg.LogLevel, logging.Format(cfg.LogFormat, "text"))
	slog.SetDefault(logger)
	if err != nil {
		logger.Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.WatchDir, 0o755); err != nil {
		logger.Error("watch_dir_create_failed", "dir", cfg.WatchDir, "error", err)
		os.Exit(1)
	}

	app, err := bootstrap.New(ctx, cfg, "docdesk-watch", terminal.New(os.Stdout), logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	fsWatcher, err := watcher.NewFSNotifyWatcher(cfg.WatchExtensions, logger)
	if err != nil {
		logger.Error("watcher_init_failed", "error", err)
		os.Exit(1)
	}
	defer fsWatcher.Stop()

	events, err := fsWatcher.Watch(ctx, cfg.WatchDir)
	if err != nil {
		logger.Error("watcher_start_failed", "dir", cfg.WatchDir, "error", err)
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           app.Metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics_server_failed", "error", err)
		}
	}()

	logger.Info("watch_started", "dir", cfg.WatchDir, "extensions", cfg.WatchExtensions, "backend_url", app.Backend.BaseURL())
	uploader := usecase.NewWatchUploadUseCase(app.Desk, app.Files, usecase.WatchUploadOptions{
		Settle: cfg.WatchSettle,
		Logger: logger,
	})
	if err := uploader.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("watch_failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
