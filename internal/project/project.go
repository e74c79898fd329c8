// Package project assembles the pipeline of one project directory from its
// configuration.
package project

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/analytics-agent/internal/config"
	"github.com/leapstack-labs/analytics-agent/internal/executor"
	"github.com/leapstack-labs/analytics-agent/internal/pipeline"
	"github.com/leapstack-labs/analytics-agent/internal/state"
	"github.com/leapstack-labs/analytics-agent/pkg/core"

	// Register the store adapters.
	_ "github.com/leapstack-labs/analytics-agent/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/analytics-agent/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/analytics-agent/pkg/adapters/sqlite"
)

// Project is an opened project: its configuration, pipeline and history.
type Project struct {
	Config   *config.ProjectConfig
	Pipeline *pipeline.Pipeline

	history *state.SQLiteStore
}

// New opens the history database of cfg.Root and builds its pipeline.
// tr may be nil when the caller never asks questions.
func New(cfg *config.ProjectConfig, tr core.Translator, logger *slog.Logger) (*Project, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	history, err := state.OpenProject(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	p, err := pipeline.New(pipeline.Config{
		ProjectDir: cfg.Root,
		Adapter:    cfg.AdapterConfig(),
		Translator: tr,
		Query: executor.Options{
			Timeout: cfg.Query.Timeout,
			MaxRows: cfg.Query.MaxRows,
		},
		History: history,
		Logger:  logger,
	})
	if err != nil {
		_ = history.Close()
		return nil, err
	}

	return &Project{Config: cfg, Pipeline: p, history: history}, nil
}

// Open loads dir/config.json and opens the project.
func Open(dir string, tr core.Translator, logger *slog.Logger) (*Project, error) {
	cfg, err := config.LoadFromDir(dir)
	if err != nil {
		return nil, err
	}
	if !config.IsProject(cfg.Root) {
		return nil, &core.NotFoundError{Path: cfg.Root}
	}
	return New(cfg, tr, logger)
}

// History returns the load and ask history of the project.
func (p *Project) History() state.Store {
	return p.history
}

// Close releases the history database.
func (p *Project) Close() error {
	if p.history == nil {
		return nil
	}
	err := p.history.Close()
	p.history = nil
	return err
}
