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

	httpadapter "github.com/kirillkom/docdesk/internal/adapters/http"
	"github.com/kirillkom/docdesk/internal/adapters/view/htmlview"
	"github.com/kirillkom/docdesk/internal/bootstrap"
	"github.com/kirillkom/docdesk/internal/config"
	"github.com/kirillkom/docdesk/internal/observability/logging"
)

func main() {
	envErr := godotenv.Load()
	cfg, err := config.Resolve()
	logger := logging.NewJSONLogger("docdesk-ui", cfg.LogLevel)
	if format := logging.Format(cfg.LogFormat, "json"); format != "json" {
		logger = logging.New(os.Stdout, "docdesk-ui", cfg.LogLevel, format)
	}
	slog.SetDefault(logger)
	if err != nil {
		logger.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	if envErr != nil {
		logger.Debug("dotenv_not_loaded", "error", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	page := htmlview.NewPage(logger)
	app, err := bootstrap.New(ctx, cfg, "docdesk-ui", page, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(ctx, app.Desk, page, httpadapter.RouterOptions{
		Logger:         logger,
		Metrics:        app.Metrics,
		RateLimitRPS:   cfg.UIRateLimitRPS,
		RateLimitBurst: cfg.UIRateLimitBurst,
		MaxInFlight:    cfg.UIMaxInFlight,
	})
	server := &http.Server{
		Addr:              ":" + cfg.UIPort,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("ui_listening", "addr", server.Addr, "backend_url", app.Backend.BaseURL())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ui_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ui_shutdown_failed", "error", err)
	}
	router.Wait()
}
