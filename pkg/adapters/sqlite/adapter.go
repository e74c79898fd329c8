// Package sqlite provides the default SQLite store adapter, backed by the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/analytics-agent/pkg/adapter"
	sqlitedialect "github.com/leapstack-labs/analytics-agent/pkg/adapters/sqlite/dialect"
	"github.com/leapstack-labs/analytics-agent/pkg/core"

	_ "modernc.org/sqlite" // sqlite driver
)

const busyTimeoutMS = 5000

// Adapter implements core.Adapter for SQLite files.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectConfig returns the SQLite dialect configuration.
func (a *Adapter) DialectConfig() *core.DialectConfig {
	return sqlitedialect.SQLite.Config()
}

// Connect opens the read-write handle in WAL mode, creating the file and
// its directory if needed.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	if cfg.Path == "" {
		return fmt.Errorf("sqlite store requires a database path")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", cfg.Path))

	db, err := adapter.OpenAndPing(ctx, "sqlite", readWriteDSN(cfg.Path))
	if err != nil {
		return err
	}
	// One writer at a time; WAL lets readers proceed alongside it.
	db.SetMaxOpenConns(1)

	a.DB = db
	a.Cfg = cfg
	return nil
}

// OpenReadOnly opens an independent handle that cannot modify the store.
// The file must already exist.
func (a *Adapter) OpenReadOnly(ctx context.Context, cfg adapter.Config) (*sql.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite store requires a database path")
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("database file: %w", err)
	}
	a.Logger.Debug("opening read-only sqlite handle", slog.String("path", cfg.Path))
	return adapter.OpenAndPing(ctx, "sqlite", readOnlyDSN(cfg.Path))
}

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

func readWriteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_txlock=immediate",
		uriEscaper.Replace(path), busyTimeoutMS)
}

func readOnlyDSN(path string) string {
	return fmt.Sprintf("file:%s?mode=ro&_pragma=query_only(1)&_pragma=busy_timeout(%d)",
		uriEscaper.Replace(path), busyTimeoutMS)
}

// Ensure Adapter implements core.Adapter interface
var _ core.Adapter = (*Adapter)(nil)
