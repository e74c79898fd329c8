package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/leapstack-labs/analytics-agent/internal/config"
	"github.com/leapstack-labs/analytics-agent/pkg/adapter"

	// Register the store adapters so the engine list is complete.
	_ "github.com/leapstack-labs/analytics-agent/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/analytics-agent/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/analytics-agent/pkg/adapters/sqlite"
)

// ConfigField represents a configuration field definition.
type ConfigField struct {
	Name        string
	Type        string
	Description string
	Category    string // "project", "duckdb", "postgres"
}

// getConfigSchema returns the configuration keys of config.json.
// Defaults are read from config.Defaults.
func getConfigSchema() []ConfigField {
	return []ConfigField{
		{Name: "name", Type: "string", Description: "Project name", Category: "project"},
		{Name: "database", Type: "string", Description: "Store path relative to the project root, or a postgres:// URL", Category: "project"},
		{Name: "store.type", Type: "string", Description: "Store engine", Category: "project"},
		{Name: "store.params", Type: "map[string]any", Description: "Engine-specific settings", Category: "project"},
		{Name: "llm.provider", Type: "string", Description: "Translator provider", Category: "project"},
		{Name: "llm.model", Type: "string", Description: "Translator model", Category: "project"},
		{Name: "llm.api_key", Type: "string", Description: "API key, `${VAR}` references are expanded", Category: "project"},
		{Name: "llm.base_url", Type: "string", Description: "OpenAI-compatible endpoint", Category: "project"},
		{Name: "llm.timeout", Type: "duration", Description: "Bound on one translator call", Category: "project"},
		{Name: "server.port", Type: "int", Description: "HTTP server port", Category: "project"},
		{Name: "server.read_header_timeout", Type: "duration", Description: "HTTP read header timeout", Category: "project"},
		{Name: "query.timeout", Type: "duration", Description: "Bound on one query execution", Category: "project"},
		{Name: "query.max_rows", Type: "int", Description: "Rows returned before the result is truncated", Category: "project"},

		{Name: "extensions", Type: "[]string", Description: "Extensions installed and loaded on connect", Category: "duckdb"},
		{Name: "settings", Type: "map[string]string", Description: "Values applied with SET on connect", Category: "duckdb"},

		{Name: "dsn", Type: "string", Description: "Complete connection string, overrides the other fields", Category: "postgres"},
		{Name: "host", Type: "string", Description: "Server host (default `localhost`)", Category: "postgres"},
		{Name: "port", Type: "int", Description: "Server port (default `5432`)", Category: "postgres"},
		{Name: "user", Type: "string", Description: "Database user", Category: "postgres"},
		{Name: "password", Type: "string", Description: "Database password", Category: "postgres"},
		{Name: "database", Type: "string", Description: "Database name", Category: "postgres"},
		{Name: "sslmode", Type: "string", Description: "SSL mode (default `disable`)", Category: "postgres"},
		{Name: "schema", Type: "string", Description: "search_path for loaded tables", Category: "postgres"},
	}
}

// generateConfigDocs generates the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(outDir, "configuration.md")
	if err := os.WriteFile(filename, renderConfigDoc(getConfigSchema()), 0600); err != nil {
		return fmt.Errorf("failed to generate configuration.md: %w", err)
	}
	log.Printf("  Generated configuration.md")
	return nil
}

func renderConfigDoc(fields []ConfigField) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "analytics-agent configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("Each project is configured by " + InlineCode(config.ConfigFileName) +
		" in the project root. Environment variables prefixed with " + InlineCode(config.EnvPrefix) +
		" override file values, and explicit command-line flags override both.")

	defaults := config.Defaults()

	w.Header(2, "Project Settings")
	var rows [][]string
	for _, f := range fields {
		if f.Category != "project" {
			continue
		}
		def := "-"
		if v, ok := defaults[f.Name]; ok {
			def = InlineCode(formatDefault(v))
		}
		rows = append(rows, []string{InlineCode(f.Name), f.Type, def, f.Description})
	}
	w.Table([]string{"Field", "Type", "Default", "Description"}, rows)

	engines := adapter.ListAdapters()
	sort.Strings(engines)
	w.Header(2, "Store Engines")
	names := make([]string, 0, len(engines))
	for _, e := range engines {
		names = append(names, InlineCode(e))
	}
	w.BulletList(names)

	w.Header(3, "DuckDB")
	w.Paragraph("Keys accepted under " + InlineCode("store.params") + " when " + InlineCode("store.type") + " is " + InlineCode("duckdb") + ":")
	w.Table([]string{"Field", "Type", "Description"}, categoryRows(fields, "duckdb"))

	w.Header(3, "PostgreSQL")
	w.Paragraph("Keys accepted under " + InlineCode("store.params") + " when " + InlineCode("store.type") +
		" is " + InlineCode("postgres") + ". A postgres:// URL in " + InlineCode("database") + " takes precedence.")
	w.Table([]string{"Field", "Type", "Description"}, categoryRows(fields, "postgres"))

	w.Header(2, "Example")
	w.CodeBlock("json", `{
  "name": "shop",
  "database": "data/analytics.db",
  "store": {"type": "sqlite"},
  "llm": {"provider": "openai", "model": "gpt-4o-mini"},
  "server": {"port": 3001}
}`)

	return w.Bytes()
}

func categoryRows(fields []ConfigField, category string) [][]string {
	var rows [][]string
	for _, f := range fields {
		if f.Category == category {
			rows = append(rows, []string{InlineCode(f.Name), f.Type, f.Description})
		}
	}
	return rows
}

func formatDefault(v any) string {
	switch d := v.(type) {
	case string:
		return d
	case int:
		return strconv.Itoa(d)
	default:
		return fmt.Sprint(d)
	}
}
