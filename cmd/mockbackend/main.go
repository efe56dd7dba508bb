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

	"github.com/kirillkom/docdesk/internal/config"
	"github.com/kirillkom/docdesk/internal/mockbackend"
	"github.com/kirillkom/docdesk/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Resolve()
	logger := logging.New(os.Stdout, "docdesk-mockbackend", cfg.LogLevel, logging.Format(cfg.LogFormat, "json"))
	slog.SetDefault(logger)
	if err != nil {
		logger.Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := mockbackend.New(ctx, mockbackend.Options{Logger: logger})
	if err != nil {
		logger.Error("mock_backend_init_failed", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.MockBackendPort,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		logger.Info("mock_backend_listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("mock_backend_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("mock_backend_shutdown_failed", "error", err)
	}
}
