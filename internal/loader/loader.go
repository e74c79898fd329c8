// Package loader creates or replaces a physical table and fills it from a
// row iterator inside a single transaction.
package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

// Loader writes tables through a read-write store handle.
type Loader struct {
	db      *sql.DB
	dialect *core.DialectConfig
	logger  *slog.Logger
}

// New creates a loader for db. Identifiers are quoted with dialect.
func New(db *sql.DB, dialect *core.DialectConfig, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{db: db, dialect: dialect, logger: logger}
}

// Load drops any table named table, creates it with one column per entry in
// columns and inserts every row from rows. All of it happens in one
// transaction: on failure the previous table, if any, is left untouched.
//
// Cells are passed as text and coerced by the store. Empty cells become
// NULL, missing trailing cells are NULL and surplus cells are ignored.
// It returns the row count of the new table as seen inside the transaction.
func (l *Loader) Load(ctx context.Context, table string, columns []core.ColumnSchema, rows core.RowIterator) (int64, error) {
	if table == "" {
		return 0, fmt.Errorf("table name is required")
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("table %s has no columns", table)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	quoted := l.dialect.QuoteIdentifier(table)

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
		return 0, fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, l.createStatement(quoted, columns)); err != nil {
		return 0, fmt.Errorf("failed to create table %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, l.insertStatement(quoted, len(columns)))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	args := make([]any, len(columns))
	var inserted int64
	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		bindRow(args, row)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("failed to insert row %d into %s: %w", inserted+1, table, err)
		}
		inserted++
	}

	var count int64
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoted).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit load of %s: %w", table, err)
	}

	l.logger.Debug("table loaded",
		slog.String("table", table),
		slog.Int("columns", len(columns)),
		slog.Int64("rows", count))
	return count, nil
}

func (l *Loader) createStatement(quotedTable string, columns []core.ColumnSchema) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = l.dialect.QuoteIdentifier(c.Name) + " " + c.StorageType
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quotedTable, strings.Join(defs, ", "))
}

func (l *Loader) insertStatement(quotedTable string, n int) string {
	placeholders := make([]string, n)
	for i := range placeholders {
		placeholders[i] = l.dialect.BindVar(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s VALUES (%s)", quotedTable, strings.Join(placeholders, ", "))
}

// bindRow fills args from row: trimmed text, or nil for empty and missing cells.
func bindRow(args []any, row core.Row) {
	for i := range args {
		if i >= len(row) {
			args[i] = nil
			continue
		}
		cell := strings.TrimSpace(row[i])
		if cell == "" {
			args[i] = nil
		} else {
			args[i] = cell
		}
	}
}
