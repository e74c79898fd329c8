// Package state records load and ask history in a per-project SQLite
// database (.analytics-agent/state.db), migrated with goose.
package state

import (
	"context"
	"time"
)

// DefaultPath is the state database path relative to the project directory.
const DefaultPath = ".analytics-agent/state.db"

// LoadStatus is the outcome of a load operation.
type LoadStatus string

// Load outcomes.
const (
	LoadStatusSuccess LoadStatus = "success"
	LoadStatusFailed  LoadStatus = "failed"
)

// QueryOutcome is the outcome of an ask or query operation.
type QueryOutcome string

// Query outcomes. They line up with the error kinds of the ask surface.
const (
	OutcomeSuccess         QueryOutcome = "success"
	OutcomeRejected        QueryOutcome = "rejected"
	OutcomeTranslatorError QueryOutcome = "translator_error"
	OutcomeExecutionError  QueryOutcome = "execution_error"
	OutcomeError           QueryOutcome = "error"
)

// LoadRecord is one load operation.
type LoadRecord struct {
	ID        string        `json:"id"`
	Table     string        `json:"table"`
	Source    string        `json:"source"`
	Columns   int           `json:"columns"`
	RowCount  int64         `json:"rowCount"`
	Status    LoadStatus    `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"durationNs"`
}

// QueryRecord is one ask or direct query.
type QueryRecord struct {
	ID        string        `json:"id"`
	Question  string        `json:"question,omitempty"`
	SQL       string        `json:"sql,omitempty"`
	Outcome   QueryOutcome  `json:"outcome"`
	Reason    string        `json:"reason,omitempty"`
	RowCount  int           `json:"rowCount"`
	Degraded  bool          `json:"degraded,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"durationNs"`
}

// Store persists history.
type Store interface {
	RecordLoad(ctx context.Context, rec *LoadRecord) error
	RecordQuery(ctx context.Context, rec *QueryRecord) error
	ListLoads(ctx context.Context, limit int) ([]*LoadRecord, error)
	ListQueries(ctx context.Context, limit int) ([]*QueryRecord, error)
	Close() error
}
