// Package pipeline wires the reader, inferrer, schema store, loader,
// validator, executor and translator into the load and ask operations of a
// single project.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/analytics-agent/internal/executor"
	"github.com/leapstack-labs/analytics-agent/internal/schema"
	"github.com/leapstack-labs/analytics-agent/internal/source"
	"github.com/leapstack-labs/analytics-agent/internal/state"
	"github.com/leapstack-labs/analytics-agent/pkg/adapter"
	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

// Config holds pipeline configuration.
type Config struct {
	// ProjectDir holds schema.json and the .analytics-agent state directory.
	ProjectDir string
	// Adapter describes the project store.
	Adapter core.AdapterConfig
	// Translator is required by Ask only.
	Translator core.Translator
	// Query bounds every execution.
	Query executor.Options
	// Lock tunes load serialization.
	Lock schema.LockOptions
	// Remote configures s3:// and http(s):// sources.
	Remote source.RemoteConfig
	// History records loads and asks (optional).
	History state.Store
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Pipeline runs operations against one project.
type Pipeline struct {
	cfg     Config
	logger  *slog.Logger
	store   *schema.Store
	schemas *schema.Cache
	adapter core.Adapter
	exec    *executor.Executor
	now     func() time.Time
}

// New creates a pipeline. The store is not opened until an operation needs it.
func New(cfg Config) (*Pipeline, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dir, err := filepath.Abs(cfg.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project dir: %w", err)
	}
	cfg.ProjectDir = dir

	a, err := adapter.NewAdapter(cfg.Adapter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create store adapter: %w", err)
	}

	query := cfg.Query
	if query.Path == "" {
		query.Path = storeLocation(cfg.Adapter.Path)
	}

	store := schema.ForProject(dir, logger)
	p := &Pipeline{
		cfg:     cfg,
		logger:  logger.With("project", dir),
		store:   store,
		schemas: schema.NewCache(store, logger),
		adapter: a,
		exec:    executor.New(executor.ForAdapter(a, cfg.Adapter), query, logger),
		now:     time.Now,
	}
	return p, nil
}

// ProjectDir returns the absolute project directory.
func (p *Pipeline) ProjectDir() string {
	return p.cfg.ProjectDir
}

// Dialect returns the SQL dialect of the project store.
func (p *Pipeline) Dialect() *core.DialectConfig {
	return p.adapter.DialectConfig()
}

// Schema returns the current project schema.
func (p *Pipeline) Schema() (*core.ProjectSchema, error) {
	return p.schemas.Get()
}

// Watch keeps the schema cache in step with schema.json until ctx is done.
func (p *Pipeline) Watch(ctx context.Context) error {
	return p.schemas.Watch(ctx)
}

// Query validates and executes sql directly, skipping the translator.
func (p *Pipeline) Query(ctx context.Context, query string) (*core.QueryResult, error) {
	started := p.now()
	res, err := p.exec.Execute(ctx, query)

	rec := &state.QueryRecord{SQL: query, StartedAt: started, Duration: p.now().Sub(started)}
	if res != nil {
		rec.RowCount = len(res.Rows)
	}
	p.recordQuery(ctx, rec, err)
	return res, err
}

func (p *Pipeline) recordQuery(ctx context.Context, rec *state.QueryRecord, err error) {
	if p.cfg.History == nil {
		return
	}
	rec.Outcome = outcomeFor(err)
	if err != nil {
		rec.Reason = err.Error()
	}
	// History must not fail the operation it describes.
	if herr := p.cfg.History.RecordQuery(context.WithoutCancel(ctx), rec); herr != nil {
		p.logger.Warn("failed to record query", "error", herr)
	}
}

func (p *Pipeline) recordLoad(ctx context.Context, rec *state.LoadRecord, err error) {
	if p.cfg.History == nil {
		return
	}
	rec.Status = state.LoadStatusSuccess
	if err != nil {
		rec.Status = state.LoadStatusFailed
		rec.Error = err.Error()
	}
	if herr := p.cfg.History.RecordLoad(context.WithoutCancel(ctx), rec); herr != nil {
		p.logger.Warn("failed to record load", "error", herr)
	}
}

func outcomeFor(err error) state.QueryOutcome {
	switch core.ErrorKind(err) {
	case "":
		return state.OutcomeSuccess
	case "validation":
		return state.OutcomeRejected
	case "translator":
		return state.OutcomeTranslatorError
	case "execution":
		return state.OutcomeExecutionError
	default:
		return state.OutcomeError
	}
}

// OnSchemaChange registers fn to run when Watch sees schema.json change.
func (p *Pipeline) OnSchemaChange(fn func()) {
	p.schemas.OnChange(fn)
}

// storeLocation returns path as it may appear in errors. Credentials in a
// connection URL are masked.
func storeLocation(path string) string {
	if !strings.Contains(path, "://") {
		return path
	}
	u, err := url.Parse(path)
	if err != nil {
		return "store"
	}
	return u.Redacted()
}
