package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/kirillkom/docdesk/internal/adapters/mcptools"
	"github.com/kirillkom/docdesk/internal/adapters/view/terminal"
	"github.com/kirillkom/docdesk/internal/bootstrap"
	"github.com/kirillkom/docdesk/internal/config"
	"github.com/kirillkom/docdesk/internal/observability/logging"
)

const version = "0.1.0"

// Stdout carries the protocol, so logs go to stderr.
func main() {
	_ = godotenv.Load()
	cfg, err := config.Resolve()
	logger := logging.New(os.Stderr, "docdesk-mcp", cfg.LogLevel, logging.Format(cfg.LogFormat, "json"))
	slog.SetDefault(logger)
	if err != nil {
		logger.Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	transcript := &mcptools.Transcript{}
	app, err := bootstrap.New(context.Background(), cfg, "docdesk-mcp", terminal.New(transcript), logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	srv := mcptools.New(app.Desk, app.Files, transcript, version)

	err = srv.ServeStdio()
	app.Close()
	if err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
