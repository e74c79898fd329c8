package config

import "time"

// Default configuration values.
const (
	DefaultDatabase          = "data/analytics.db"
	DefaultStoreType         = "sqlite"
	DefaultProvider          = "openai"
	DefaultModel             = "gpt-4o-mini"
	DefaultPort              = 3001
	DefaultLLMTimeout        = 60 * time.Second
	DefaultQueryTimeout      = 30 * time.Second
	DefaultMaxRows           = 10000
	DefaultReadHeaderTimeout = 10 * time.Second
)

// Defaults returns the default values as a flat koanf map.
func Defaults() map[string]any {
	return map[string]any{
		"database":                   DefaultDatabase,
		"store.type":                 DefaultStoreType,
		"llm.provider":               DefaultProvider,
		"llm.model":                  DefaultModel,
		"llm.timeout":                DefaultLLMTimeout.String(),
		"server.port":                DefaultPort,
		"server.read_header_timeout": DefaultReadHeaderTimeout.String(),
		"query.timeout":              DefaultQueryTimeout.String(),
		"query.max_rows":             DefaultMaxRows,
	}
}

// New returns the configuration a fresh project is scaffolded with.
func New(name string) *ProjectConfig {
	return &ProjectConfig{
		Name:     name,
		Database: DefaultDatabase,
		Store:    StoreConfig{Type: DefaultStoreType},
		LLM:      LLMConfig{Provider: DefaultProvider, Model: DefaultModel},
		Server:   ServerConfig{Port: DefaultPort},
	}
}
