package core

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// Adapter defines the interface that all store adapters must implement.
type Adapter interface {
	// Connect opens the read-write handle used by the table loader.
	Connect(ctx context.Context, cfg AdapterConfig) error

	// Close closes the read-write handle.
	Close() error

	// Handle returns the read-write handle. Nil until Connect succeeds.
	Handle() *sql.DB

	// OpenReadOnly opens a fresh read-only handle to the store described by cfg.
	// It does not require Connect. The caller owns the handle and must close it.
	OpenReadOnly(ctx context.Context, cfg AdapterConfig) (*sql.DB, error)

	// DialectConfig returns the static dialect configuration.
	DialectConfig() *DialectConfig
}

// AdapterConfig holds configuration for connecting to a store.
type AdapterConfig struct {
	Type   string
	Path   string
	Params map[string]any
}

// DialectConfig is the static description of a store's SQL dialect.
type DialectConfig struct {
	Name       string
	Identifier IdentifierConfig

	// StorageTypes maps each semantic type to the engine-native column type.
	StorageTypes map[SemanticType]string

	// Placeholder is the bind parameter style of the driver.
	Placeholder PlaceholderStyle
}

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (DuckDB, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// IdentifierConfig describes identifier quoting.
type IdentifierConfig struct {
	Quote       string
	QuoteEnd    string
	QuoteEscape string
}

// QuoteIdentifier quotes name with the dialect's identifier quotes,
// escaping any embedded closing quote.
func (d *DialectConfig) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, d.Identifier.QuoteEnd, d.Identifier.QuoteEscape)
	return d.Identifier.Quote + escaped + d.Identifier.QuoteEnd
}

// BindVar returns the n-th (1-based) bind parameter marker.
func (d *DialectConfig) BindVar(n int) string {
	if d.Placeholder == PlaceholderDollar {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}
