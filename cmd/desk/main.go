package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kirillkom/docdesk/internal/adapters/cli"
	"github.com/kirillkom/docdesk/internal/adapters/view/terminal"
	"github.com/kirillkom/docdesk/internal/bootstrap"
	"github.com/kirillkom/docdesk/internal/config"
	"github.com/kirillkom/docdesk/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Resolve()
	logger := logging.New(os.Stderr, "docdesk", cfg.LogLevel, logging.Format(cfg.LogFormat, "text"))
	slog.SetDefault(logger)
	if err != nil {
		logger.Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "docdesk", terminal.New(os.Stdout), logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	shell := cli.NewShell(app.Desk, app.Files, os.Stdout)
	if app.History != nil {
		shell.WithHistory(app.History)
	}

	err = shell.Run(ctx, os.Stdin)
	app.Close()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("shell_failed", "error", err)
		os.Exit(1)
	}
}
