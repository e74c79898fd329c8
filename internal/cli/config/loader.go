package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/providers/posflag"
	intconfig "github.com/leapstack-labs/analytics-agent/internal/config"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// configKey is used to store config in context.
type configKey struct{}

// ErrNotProject is returned by commands that need an initialized project.
var ErrNotProject = errors.New("not an analytics-agent project (no config.json and schema.json found)\nHint: run 'analytics-agent init <name>' first or pass --project-dir")

// flagKeys maps CLI flag names to config keys where they differ.
var flagKeys = map[string]string{
	"model": "llm.model",
	"store": "store.type",
}

// inferProjectRoot determines the project root from CLI flags and filesystem.
// Priority:
//  1. Explicit --project-dir flag
//  2. Search upward from CWD for config.json + schema.json
//  3. Current working directory
func inferProjectRoot(flags *pflag.FlagSet) string {
	if flags != nil && flags.Lookup("project-dir") != nil {
		if projectDir, _ := flags.GetString("project-dir"); projectDir != "" && flags.Changed("project-dir") {
			abs, err := filepath.Abs(projectDir)
			if err == nil {
				return abs
			}
			return filepath.Clean(projectDir)
		}
	}

	cwd, _ := os.Getwd()
	if cwd == "" {
		return "."
	}
	if root := intconfig.FindProjectRoot(cwd); root != "" {
		return root
	}
	return cwd
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	projectRoot := inferProjectRoot(flags)

	k, cfgFile, err := intconfig.NewKoanf(projectRoot, map[string]any{
		"verbose": false,
		"output":  DefaultOutput,
	})
	if err != nil {
		return nil, err
	}

	// A --database flag is relative to the CWD, not the project root.
	var flagDatabase string
	if flags != nil && flags.Lookup("database") != nil && flags.Changed("database") {
		if v, _ := flags.GetString("database"); v != "" {
			flagDatabase, _ = filepath.Abs(v)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed || f.Name == "project-dir" {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[f.Name]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.ConfigFile = cfgFile
	cfg.Root = projectRoot
	cfg.LLM.APIKey = intconfig.ExpandEnvVars(cfg.LLM.APIKey)
	cfg.LLM.BaseURL = intconfig.ExpandEnvVars(cfg.LLM.BaseURL)
	if flagDatabase != "" {
		cfg.Database = flagDatabase
	}

	if err := cfg.Validate(); err != nil {
		if cfgFile != "" {
			return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// RequireProject returns ErrNotProject unless cfg points at an initialized project.
func (c *Config) RequireProject() error {
	if !c.InProject() {
		return ErrNotProject
	}
	return nil
}

// StatePath returns the history database path of the project.
func (c *Config) StatePath() string {
	return filepath.Join(c.ProjectRoot, DefaultStateFile)
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// WithConfig returns a copy of ctx carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the config stored by WithConfig, or nil.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return nil
}
