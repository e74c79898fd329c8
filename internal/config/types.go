// Package config provides the shared project configuration for
// analytics-agent. It is decoupled from CLI concerns so the HTTP server can
// load the configuration of any project directory it is asked about.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/analytics-agent/internal/translator"
	"github.com/leapstack-labs/analytics-agent/pkg/adapter"
	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

// StoreConfig selects the store engine.
type StoreConfig struct {
	Type string `koanf:"type"` // sqlite, duckdb, postgres

	// Params holds adapter-specific configuration (e.g., DuckDB extensions, settings)
	Params map[string]any `koanf:"params"`
}

// LLMConfig configures the translator client.
type LLMConfig struct {
	Provider string        `koanf:"provider"`
	Model    string        `koanf:"model"`
	APIKey   string        `koanf:"api_key"`
	BaseURL  string        `koanf:"base_url"`
	Timeout  time.Duration `koanf:"timeout"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port              int           `koanf:"port"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
}

// QueryConfig bounds query execution.
type QueryConfig struct {
	Timeout time.Duration `koanf:"timeout"`
	MaxRows int           `koanf:"max_rows"`
}

// ProjectConfig is the content of a project's config.json.
type ProjectConfig struct {
	Name     string       `koanf:"name"`
	Database string       `koanf:"database"` // relative to the project root
	Store    StoreConfig  `koanf:"store"`
	LLM      LLMConfig    `koanf:"llm"`
	Server   ServerConfig `koanf:"server"`
	Query    QueryConfig  `koanf:"query"`

	// Root is the project directory. It is not read from the file.
	Root string `koanf:"-"`
}

// DatabasePath returns the store file path, resolved against Root.
// Connection URLs are returned unchanged.
func (c *ProjectConfig) DatabasePath() string {
	if c.Database == "" || filepath.IsAbs(c.Database) || c.Root == "" || strings.Contains(c.Database, "://") {
		return c.Database
	}
	return filepath.Join(c.Root, c.Database)
}

// AdapterConfig returns the connection settings of the project store.
func (c *ProjectConfig) AdapterConfig() core.AdapterConfig {
	return core.AdapterConfig{
		Type:   strings.ToLower(c.Store.Type),
		Path:   c.DatabasePath(),
		Params: c.Store.Params,
	}
}

// TranslatorConfig returns the translator client settings.
func (c *ProjectConfig) TranslatorConfig() translator.Config {
	return translator.Config{
		Provider: c.LLM.Provider,
		Model:    c.LLM.Model,
		APIKey:   c.LLM.APIKey,
		BaseURL:  c.LLM.BaseURL,
		Timeout:  c.LLM.Timeout,
		Dialect:  strings.ToLower(c.Store.Type),
	}
}

// Validate checks if the configuration is valid.
// It uses the adapter registry to determine which store types are available.
func (c *ProjectConfig) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.Store.Type == "" {
		return fmt.Errorf("store.type is required")
	}
	if !adapter.IsRegistered(c.Store.Type) {
		return &adapter.UnknownAdapterError{
			Type:      c.Store.Type,
			Available: adapter.ListAdapters(),
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Query.MaxRows < 0 {
		return fmt.Errorf("query.max_rows must not be negative")
	}
	return nil
}
