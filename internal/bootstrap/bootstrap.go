package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/docdesk/internal/config"
	"github.com/kirillkom/docdesk/internal/core/ports"
	"github.com/kirillkom/docdesk/internal/core/usecase"
	"github.com/kirillkom/docdesk/internal/infrastructure/backend/httpapi"
	"github.com/kirillkom/docdesk/internal/infrastructure/export/xlsx"
	natsqueue "github.com/kirillkom/docdesk/internal/infrastructure/queue/nats"
	"github.com/kirillkom/docdesk/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/docdesk/internal/infrastructure/resilience"
	"github.com/kirillkom/docdesk/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/docdesk/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Backend  *httpapi.Client
	Executor *resilience.Executor
	Metrics  *metrics.DeskMetrics
	Files    *localfs.Storage
	Desk     *usecase.DeskUseCase
	Journal  *usecase.JournalRecorder
	// History is set when actions are journaled to Postgres.
	History ports.ActionHistory

	closers []func()
}

// New wires the desk against view. service labels metrics and journal events.
// The journal sinks are optional and only opened when configured.
func New(ctx context.Context, cfg config.Config, service string, view ports.View, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	executor := resilience.NewExecutor(resilience.Config{
		BreakerEnabled:      cfg.BreakerEnabled,
		BreakerMinRequests:  uint32(max(cfg.BreakerMinRequests, 0)),
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerOpenTimeout:  cfg.BreakerOpenTimeout,
	})
	backend := httpapi.NewWithOptions(cfg.BackendURL, httpapi.Options{
		Timeout:  cfg.BackendTimeout,
		Executor: executor,
	})
	deskMetrics := metrics.NewDeskMetrics(service)

	app := &App{
		Config:   cfg,
		Backend:  backend,
		Executor: executor,
		Metrics:  deskMetrics,
		Files:    localfs.New(""),
	}

	journals, err := app.openJournals(ctx, cfg, executor, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	var recorder ports.ActionRecorder = deskMetrics
	if len(journals) > 0 {
		app.Journal = usecase.NewJournalRecorder(deskMetrics, journals, usecase.JournalOptions{
			Service: service,
			Logger:  logger,
			Buffer:  cfg.JournalBuffer,
		})
		// The recorder drains before the sinks it writes to are closed.
		app.closers = append([]func(){app.Journal.Close}, app.closers...)
		recorder = app.Journal
	}

	app.Desk = usecase.NewDeskUseCase(backend, view, usecase.DeskOptions{
		Logger:   logger,
		Recorder: recorder,
		Exporter: xlsx.NewExporter(),
	})
	return app, nil
}

func (a *App) openJournals(ctx context.Context, cfg config.Config, executor *resilience.Executor, logger *slog.Logger) ([]ports.ActionJournal, error) {
	var journals []ports.ActionJournal

	if dsn := strings.TrimSpace(cfg.JournalPostgresDSN); dsn != "" {
		db, err := postgres.OpenDB(dsn)
		if err != nil {
			return nil, fmt.Errorf("open journal db: %w", err)
		}
		a.closers = append(a.closers, func() { closeDB(db, logger) })

		journal := postgres.NewActionJournal(db)
		schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := journal.EnsureSchema(schemaCtx); err != nil {
			return nil, fmt.Errorf("ensure journal schema: %w", err)
		}
		journals = append(journals, journal)
		a.History = journal
		logger.Info("journal_postgres_enabled")
	}

	if url := strings.TrimSpace(cfg.NATSURL); url != "" {
		publisher, err := natsqueue.NewWithOptions(url, cfg.NATSSubject, natsqueue.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("open journal publisher: %w", err)
		}
		a.closers = append(a.closers, publisher.Close)
		journals = append(journals, publisher)
		logger.Info("journal_nats_enabled", "subject", publisher.Subject())
	}

	return journals, nil
}

// Close flushes the journal and releases its sinks. Safe to call on a
// partially built App.
func (a *App) Close() {
	closers := a.closers
	a.closers = nil
	for _, closeFn := range closers {
		closeFn()
	}
}

func closeDB(db *sql.DB, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.Warn("journal_db_close_failed", "error", err)
	}
}
