// Package translator implements core.Translator against chat-completion
// providers.
//
// A client is built once from Config and injected into the ask pipeline.
package translator

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

// Supported providers.
const (
	ProviderOpenAI           = "openai"
	ProviderOpenAICompatible = "openai-compatible"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gpt-4o-mini"

// Config selects and configures a provider.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration

	// Dialect names the store engine the prompt targets.
	Dialect string
}

// New builds the translator for cfg.Provider.
// An empty APIKey falls back to the OPENAI_API_KEY environment variable.
func New(cfg Config, logger *slog.Logger) (core.Translator, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set: export it or set llm.api_key in config.json")
		}
		return newOpenAI(cfg, logger), nil
	case ProviderOpenAICompatible:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("provider %s requires llm.base_url", ProviderOpenAICompatible)
		}
		return newOpenAI(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q (supported: %s, %s)", cfg.Provider, ProviderOpenAI, ProviderOpenAICompatible)
	}
}
