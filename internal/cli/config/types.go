// Package config provides configuration management for the analytics-agent CLI.
//
// This package extends the shared project configuration from internal/config
// with CLI-specific fields (verbosity, output mode) and flag layering.
package config

import (
	intconfig "github.com/leapstack-labs/analytics-agent/internal/config"
)

// ProjectConfig is an alias for the shared project configuration.
type ProjectConfig = intconfig.ProjectConfig

// Config holds all CLI configuration options.
type Config struct {
	intconfig.ProjectConfig `koanf:",squash"`

	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`

	// ProjectRoot is the directory the project documents live in.
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the config file that was read, or "" outside a project.
	ConfigFile string `koanf:"-"`
}

// Default CLI values.
const (
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultStateFile = ".analytics-agent/state.db"
	HistoryFile      = ".analytics-agent/ask_history"
)

// InProject reports whether a project configuration was found.
func (c *Config) InProject() bool {
	return c.ConfigFile != "" && intconfig.IsProject(c.ProjectRoot)
}
