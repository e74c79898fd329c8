// Package duckdb provides a DuckDB store adapter for analytics-agent.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/analytics-agent/pkg/adapter"
	duckdbdialect "github.com/leapstack-labs/analytics-agent/pkg/adapters/duckdb/dialect"
	"github.com/leapstack-labs/analytics-agent/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements core.Adapter for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectConfig returns the DuckDB dialect configuration.
func (a *Adapter) DialectConfig() *core.DialectConfig {
	return duckdbdialect.DuckDB.Config()
}

// Connect establishes a read-write connection to DuckDB and applies the
// configured extensions and settings.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}
	if cfg.Path == "" {
		return fmt.Errorf("duckdb store requires a database path")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", cfg.Path))

	db, err := adapter.OpenAndPing(ctx, "duckdb", cfg.Path)
	if err != nil {
		return err
	}
	if err := applyParams(ctx, db, params); err != nil {
		_ = db.Close()
		return err
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// OpenReadOnly opens the database file with access_mode=read_only.
// DuckDB refuses the open while another process holds the file for writing.
func (a *Adapter) OpenReadOnly(ctx context.Context, cfg adapter.Config) (*sql.DB, error) {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("database file: %w", err)
	}

	a.Logger.Debug("opening read-only duckdb handle", slog.String("path", cfg.Path))

	db, err := adapter.OpenAndPing(ctx, "duckdb", cfg.Path+"?access_mode=read_only")
	if err != nil {
		return nil, err
	}
	// Extensions are only loaded here; INSTALL needs write access to the
	// extension directory and was done by Connect.
	for _, ext := range params.Extensions {
		if _, err := db.ExecContext(ctx, "LOAD "+ext); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}
	return db, nil
}

func applyParams(ctx context.Context, db *sql.DB, p *Params) error {
	for _, stmt := range p.setupStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply %q: %w", stmt, err)
		}
	}
	return nil
}

// Ensure Adapter implements core.Adapter interface
var _ core.Adapter = (*Adapter)(nil)
