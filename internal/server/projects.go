package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/leapstack-labs/analytics-agent/internal/config"
	"github.com/leapstack-labs/analytics-agent/internal/project"
	"github.com/leapstack-labs/analytics-agent/internal/server/notifier"
	"github.com/leapstack-labs/analytics-agent/internal/translator"
	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

// OpenFunc opens the project in an absolute directory.
type OpenFunc func(dir string) (*project.Project, error)

// NewProjectOpener returns an OpenFunc that reads each project's config.json.
// Translator clients are built once per distinct provider configuration and
// shared between projects.
func NewProjectOpener(logger *slog.Logger) OpenFunc {
	var (
		mu      sync.Mutex
		clients = map[translator.Config]core.Translator{}
	)
	clientFor := func(cfg translator.Config) core.Translator {
		mu.Lock()
		defer mu.Unlock()
		if tr, ok := clients[cfg]; ok {
			return tr
		}
		tr, err := translator.New(cfg, logger)
		if err != nil {
			// Loading still works without a translator; asking reports why not.
			logger.Warn("translator unavailable", "provider", cfg.Provider, "error", err)
			tr = core.TranslatorFunc(func(context.Context, string, *core.ProjectSchema) (*core.Translation, error) {
				return nil, &core.TranslatorError{Err: err}
			})
		}
		clients[cfg] = tr
		return tr
	}

	return func(dir string) (*project.Project, error) {
		cfg, err := config.LoadFromDir(dir)
		if err != nil {
			return nil, err
		}
		if !config.IsProject(cfg.Root) {
			return nil, &core.NotFoundError{Path: filepath.Join(cfg.Root, "schema.json")}
		}
		return project.New(cfg, clientFor(cfg.TranslatorConfig()), logger)
	}
}

type entry struct {
	project  *project.Project
	notifier *notifier.Notifier
}

// projects opens projects on first use, keyed by absolute path, and keeps
// a schema watcher running for each.
type projects struct {
	defaultDir string
	open       OpenFunc
	logger     *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	entries map[string]*entry
}

func newProjects(defaultDir string, open OpenFunc, logger *slog.Logger) *projects {
	return &projects{
		defaultDir: defaultDir,
		open:       open,
		logger:     logger,
		entries:    make(map[string]*entry),
	}
}

func (ps *projects) start(ctx context.Context) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.cancel != nil {
		ps.cancel()
	}
	ps.ctx, ps.cancel = context.WithCancel(ctx)
}

// get returns the project at dir, or the default project for "".
func (ps *projects) get(dir string) (*entry, error) {
	if dir == "" {
		dir = ps.defaultDir
	}
	if dir == "" {
		return nil, errBadRequest("projectPath is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errBadRequest(fmt.Sprintf("invalid projectPath: %v", err))
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	if e, ok := ps.entries[abs]; ok {
		return e, nil
	}

	p, err := ps.open(abs)
	if err != nil {
		return nil, err
	}
	e := &entry{project: p, notifier: notifier.New()}
	p.Pipeline.OnSchemaChange(e.notifier.Broadcast)
	ps.entries[abs] = e

	if ps.ctx != nil {
		ctx := ps.ctx
		ps.wg.Add(1)
		go func() {
			defer ps.wg.Done()
			if err := p.Pipeline.Watch(ctx); err != nil {
				ps.logger.Warn("schema watch stopped", "project", abs, "error", err)
			}
		}()
	}
	ps.logger.Debug("project opened", "project", abs)
	return e, nil
}

func (ps *projects) close() error {
	ps.mu.Lock()
	if ps.cancel != nil {
		ps.cancel()
	}
	ps.mu.Unlock()
	ps.wg.Wait()

	ps.mu.Lock()
	defer ps.mu.Unlock()
	var errs []error
	for dir, e := range ps.entries {
		if err := e.project.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", dir, err))
		}
		delete(ps.entries, dir)
	}
	return errors.Join(errs...)
}
