package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // sqlite driver
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite state store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// OpenProject opens and migrates the state database of projectDir.
func OpenProject(projectDir string) (*SQLiteStore, error) {
	s := NewSQLiteStore()
	if err := s.Open(filepath.Join(projectDir, DefaultPath)); err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// Serializes writers; an in-memory database also lives on one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// --- Load operations ---

// RecordLoad stores a load. ID and StartedAt are filled in when empty.
func (s *SQLiteStore) RecordLoad(ctx context.Context, rec *LoadRecord) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if rec.ID == "" {
		rec.ID = generateID()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO loads (id, table_name, source, columns, row_count, status, error, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Table, rec.Source, rec.Columns, rec.RowCount, string(rec.Status),
		nullIfEmpty(rec.Error), rec.StartedAt.UTC(), rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record load: %w", err)
	}
	return nil
}

// ListLoads returns the most recent loads, newest first.
func (s *SQLiteStore) ListLoads(ctx context.Context, limit int) ([]*LoadRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, table_name, source, columns, row_count, status, error, started_at, duration_ms
		 FROM loads ORDER BY started_at DESC, rowid DESC LIMIT ?`, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list loads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*LoadRecord
	for rows.Next() {
		rec := &LoadRecord{}
		var status string
		var errMsg sql.NullString
		var durationMS int64
		if err := rows.Scan(&rec.ID, &rec.Table, &rec.Source, &rec.Columns, &rec.RowCount,
			&status, &errMsg, &rec.StartedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan load: %w", err)
		}
		rec.Status = LoadStatus(status)
		rec.Error = errMsg.String
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

// --- Query operations ---

// RecordQuery stores an ask or direct query. ID and StartedAt are filled in when empty.
func (s *SQLiteStore) RecordQuery(ctx context.Context, rec *QueryRecord) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if rec.ID == "" {
		rec.ID = generateID()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO queries (id, question, sql_text, outcome, reason, row_count, degraded, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Question, rec.SQL, string(rec.Outcome), nullIfEmpty(rec.Reason),
		rec.RowCount, rec.Degraded, rec.StartedAt.UTC(), rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record query: %w", err)
	}
	return nil
}

// ListQueries returns the most recent queries, newest first.
func (s *SQLiteStore) ListQueries(ctx context.Context, limit int) ([]*QueryRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, sql_text, outcome, reason, row_count, degraded, started_at, duration_ms
		 FROM queries ORDER BY started_at DESC, rowid DESC LIMIT ?`, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*QueryRecord
	for rows.Next() {
		rec := &QueryRecord{}
		var outcome string
		var reason sql.NullString
		var durationMS int64
		if err := rows.Scan(&rec.ID, &rec.Question, &rec.SQL, &outcome, &reason,
			&rec.RowCount, &rec.Degraded, &rec.StartedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan query: %w", err)
		}
		rec.Outcome = QueryOutcome(outcome)
		rec.Reason = reason.String
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

var _ Store = (*SQLiteStore)(nil)
