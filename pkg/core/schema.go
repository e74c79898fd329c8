package core

import (
	"fmt"
	"time"
)

// SchemaVersion is the document format version written by init.
const SchemaVersion = "1.0.0"

// SemanticType is the business meaning of a column.
// It is a closed set: String, Number and Date.
type SemanticType int

const (
	// TypeString is free text. It is the fallback for every column.
	TypeString SemanticType = iota
	// TypeNumber is a decimal value, possibly decorated with $ , or %.
	TypeNumber
	// TypeDate is a calendar date or timestamp.
	TypeDate
)

// String returns the wire name of the semantic type.
func (t SemanticType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeDate:
		return "date"
	default:
		return fmt.Sprintf("SemanticType(%d)", int(t))
	}
}

// ParseSemanticType parses a wire name back into a SemanticType.
func ParseSemanticType(s string) (SemanticType, error) {
	switch s {
	case "string":
		return TypeString, nil
	case "number":
		return TypeNumber, nil
	case "date":
		return TypeDate, nil
	default:
		return TypeString, fmt.Errorf("unknown semantic type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t SemanticType) MarshalText() ([]byte, error) {
	switch t {
	case TypeString, TypeNumber, TypeDate:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("invalid semantic type %d", int(t))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *SemanticType) UnmarshalText(b []byte) error {
	parsed, err := ParseSemanticType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ColumnSchema is the inferred name/type/storage-type triple for one column.
// Name is lowercase, [a-z0-9_], non-empty and unique within its table.
type ColumnSchema struct {
	Name        string       `json:"name"`
	Type        SemanticType `json:"type"`
	StorageType string       `json:"sqlType"`
}

// TableSchema describes one loaded table.
type TableSchema struct {
	Name     string         `json:"name"`
	Columns  []ColumnSchema `json:"columns"`
	RowCount int64          `json:"rowCount"`
	Source   string         `json:"source"`
	LoadedAt time.Time      `json:"loadedAt"`
}

// Column returns the named column, if present.
func (t *TableSchema) Column(name string) (ColumnSchema, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSchema{}, false
}

// ProjectSchema is the contract the translator must honor.
// Table names are unique; reloading a table replaces its entry.
type ProjectSchema struct {
	Tables    []TableSchema `json:"tables"`
	CreatedAt time.Time     `json:"createdAt"`
	Version   string        `json:"version"`
}

// NewProjectSchema returns an empty schema document stamped with now.
func NewProjectSchema(now time.Time) *ProjectSchema {
	return &ProjectSchema{
		Tables:    []TableSchema{},
		CreatedAt: now.UTC(),
		Version:   SchemaVersion,
	}
}

// Table looks up a table by name.
func (p *ProjectSchema) Table(name string) (*TableSchema, bool) {
	for i := range p.Tables {
		if p.Tables[i].Name == name {
			return &p.Tables[i], true
		}
	}
	return nil, false
}

// TableNames returns table names in document order.
func (p *ProjectSchema) TableNames() []string {
	names := make([]string, 0, len(p.Tables))
	for _, t := range p.Tables {
		names = append(names, t.Name)
	}
	return names
}

// Row is one record of raw text cells, one per header, for the lifetime of a load.
type Row []string

// RowIterator yields rows until it returns io.EOF. It is not restartable.
type RowIterator interface {
	Next() (Row, error)
}

// ValidationResult is the outcome of a static SQL safety check.
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// QueryResult holds the rows returned by a read-only query.
// Columns preserves the order the store returned them in.
type QueryResult struct {
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	Truncated bool             `json:"truncated,omitempty"`
}
