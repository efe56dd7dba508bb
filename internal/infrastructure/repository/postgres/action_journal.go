package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/docdesk/internal/core/domain"
)

// ActionJournal keeps the history of desk actions in the desk_actions table.
type ActionJournal struct {
	db *sql.DB
}

func NewActionJournal(db *sql.DB) *ActionJournal {
	return &ActionJournal{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (j *ActionJournal) EnsureSchema(ctx context.Context) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across desk processes sharing a database.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101501)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS desk_actions (
	id TEXT PRIMARY KEY,
	service TEXT NOT NULL,
	action TEXT NOT NULL,
	outcome TEXT NOT NULL,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_desk_actions_created_at ON desk_actions(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (j *ActionJournal) Append(ctx context.Context, event domain.ActionEvent) error {
	const query = `
INSERT INTO desk_actions (id, service, action, outcome, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING`
	_, err := j.db.ExecContext(ctx, query,
		event.ID,
		event.Service,
		string(event.Action),
		event.Outcome,
		event.DurationMS,
		event.At,
	)
	if err != nil {
		return fmt.Errorf("insert desk action: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (j *ActionJournal) Recent(ctx context.Context, limit int) ([]domain.ActionEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
SELECT id, service, action, outcome, duration_ms, created_at
FROM desk_actions
ORDER BY created_at DESC
LIMIT $1`
	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query desk actions: %w", err)
	}
	defer rows.Close()

	var out []domain.ActionEvent
	for rows.Next() {
		var (
			event  domain.ActionEvent
			action string
		)
		if err := rows.Scan(&event.ID, &event.Service, &action, &event.Outcome, &event.DurationMS, &event.At); err != nil {
			return nil, fmt.Errorf("scan desk action: %w", err)
		}
		event.Action = domain.Action(action)
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate desk actions: %w", err)
	}
	return out, nil
}
