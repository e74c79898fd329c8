// Package schema persists the project schema document (schema.json) and
// serializes the load operations that rewrite it.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

// FileName is the schema document name inside a project directory.
const FileName = "schema.json"

// Store reads and writes one schema document.
// Writes replace the whole document; callers serialize them with Lock.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a store for the document at path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{path: path, logger: logger}
}

// ForProject returns the store for projectDir/schema.json.
func ForProject(projectDir string, logger *slog.Logger) *Store {
	return NewStore(filepath.Join(projectDir, FileName), logger)
}

// Path returns the document path.
func (s *Store) Path() string {
	return s.path
}

// Read loads the document. A missing file is a *core.NotFoundError and
// undecodable content a *core.CorruptSchemaError.
func (s *Store) Read() (*core.ProjectSchema, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &core.NotFoundError{Path: s.path}
	}
	if err != nil {
		return nil, &core.IOError{Path: s.path, Err: err}
	}
	return Decode(s.path, data)
}

// Decode parses and checks a schema document. path is used in errors.
func Decode(path string, data []byte) (*core.ProjectSchema, error) {
	var ps core.ProjectSchema
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, &core.CorruptSchemaError{Path: path, Err: err}
	}
	if ps.Tables == nil {
		ps.Tables = []core.TableSchema{}
	}

	seen := make(map[string]bool, len(ps.Tables))
	for i, t := range ps.Tables {
		if t.Name == "" {
			return nil, &core.CorruptSchemaError{Path: path, Err: fmt.Errorf("table %d has no name", i)}
		}
		if seen[t.Name] {
			return nil, &core.CorruptSchemaError{Path: path, Err: fmt.Errorf("duplicate table %q", t.Name)}
		}
		seen[t.Name] = true
	}
	return &ps, nil
}

// Write replaces the document with ps. The new content is written to a
// temporary file in the same directory and renamed over the old one, so
// readers never see a partial document.
func (s *Store) Write(ps *core.ProjectSchema) error {
	data, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".schema-*.json")
	if err != nil {
		return &core.IOError{Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &core.IOError{Path: s.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &core.IOError{Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &core.IOError{Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return &core.IOError{Path: s.path, Err: err}
	}

	s.logger.Debug("schema written", slog.String("path", s.path), slog.Int("tables", len(ps.Tables)))
	return nil
}

// Init writes an empty document. It fails if one already exists.
func (s *Store) Init(now time.Time) (*core.ProjectSchema, error) {
	if _, err := os.Stat(s.path); err == nil {
		return nil, fmt.Errorf("schema already exists at %s", s.path)
	}
	ps := core.NewProjectSchema(now)
	if err := s.Write(ps); err != nil {
		return nil, err
	}
	return ps, nil
}
