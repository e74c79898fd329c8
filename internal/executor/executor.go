// Package executor runs validated SQL against a read-only store handle.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/analytics-agent/internal/sqlguard"
	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

// Opener opens a fresh read-only handle. The executor closes it.
type Opener func(ctx context.Context) (*sql.DB, error)

// Options bound a single execution.
type Options struct {
	// Timeout bounds open plus query. Zero means no limit beyond ctx.
	Timeout time.Duration
	// MaxRows caps returned rows; further rows set QueryResult.Truncated.
	// Zero means unlimited.
	MaxRows int
	// Path is the store location reported when the store cannot be opened.
	Path string
}

// Executor executes single read-only statements.
type Executor struct {
	open   Opener
	opts   Options
	logger *slog.Logger
}

// New creates an executor that opens handles with open.
func New(open Opener, opts Options, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{open: open, opts: opts, logger: logger}
}

// ForAdapter returns an Opener for the store described by cfg.
func ForAdapter(a core.Adapter, cfg core.AdapterConfig) Opener {
	return func(ctx context.Context) (*sql.DB, error) {
		return a.OpenReadOnly(ctx, cfg)
	}
}

// Execute validates query, opens a read-only handle and returns every row
// as a column-name to value map, in the order the store produced them.
//
// Unsafe text yields *core.ValidationError without touching the store. A
// store that cannot be opened yields *core.IOError; a query the store
// rejects yields *core.ExecutionError with the text attached. Failures are
// never retried and the handle is always closed.
func (e *Executor) Execute(ctx context.Context, query string) (*core.QueryResult, error) {
	if err := sqlguard.Check(query); err != nil {
		return nil, err
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	db, err := e.open(ctx)
	if err != nil {
		return nil, &core.IOError{Path: e.opts.Path, Err: err}
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			e.logger.Warn("failed to close read-only handle", slog.String("error", cerr.Error()))
		}
	}()

	start := time.Now()
	result, err := e.run(ctx, db, query)
	if err != nil {
		return nil, &core.ExecutionError{SQL: query, Err: err}
	}

	e.logger.Debug("query executed",
		slog.Int("rows", len(result.Rows)),
		slog.Bool("truncated", result.Truncated),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

func (e *Executor) run(ctx context.Context, db *sql.DB, query string) (*core.QueryResult, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := &core.QueryResult{Columns: columns, Rows: []map[string]any{}}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if e.opts.MaxRows > 0 && len(result.Rows) >= e.opts.MaxRows {
			result.Truncated = true
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// normalizeValue makes driver values JSON friendly.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	default:
		return x
	}
}
