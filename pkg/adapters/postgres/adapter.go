// Package postgres provides a PostgreSQL store adapter for analytics-agent.
package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/leapstack-labs/analytics-agent/pkg/adapter"
	pgdialect "github.com/leapstack-labs/analytics-agent/pkg/adapters/postgres/dialect"
	"github.com/leapstack-labs/analytics-agent/pkg/core"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

// Adapter implements core.Adapter for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectConfig returns the PostgreSQL dialect configuration.
func (a *Adapter) DialectConfig() *core.DialectConfig {
	return pgdialect.Postgres.Config()
}

// Connect establishes the read-write connection.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn, err := dsnFor(cfg, false)
	if err != nil {
		return err
	}

	a.Logger.Debug("connecting to postgres")

	db, err := adapter.OpenAndPing(ctx, "pgx", dsn)
	if err != nil {
		return err
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// OpenReadOnly opens a session whose transactions are all read-only, so
// the server rejects any write that got past validation.
func (a *Adapter) OpenReadOnly(ctx context.Context, cfg adapter.Config) (*sql.DB, error) {
	dsn, err := dsnFor(cfg, true)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("opening read-only postgres handle")
	return adapter.OpenAndPing(ctx, "pgx", dsn)
}

func dsnFor(cfg adapter.Config, readOnly bool) (string, error) {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return "", err
	}
	return buildDSN(cfg.Path, params, readOnly)
}

// Ensure Adapter implements core.Adapter interface
var _ core.Adapter = (*Adapter)(nil)
