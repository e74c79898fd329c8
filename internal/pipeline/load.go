package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/leapstack-labs/analytics-agent/internal/infer"
	"github.com/leapstack-labs/analytics-agent/internal/loader"
	"github.com/leapstack-labs/analytics-agent/internal/schema"
	"github.com/leapstack-labs/analytics-agent/internal/source"
	"github.com/leapstack-labs/analytics-agent/internal/state"
	"github.com/leapstack-labs/analytics-agent/pkg/adapter"
	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

// LoadRequest describes one delimited-text source to load.
type LoadRequest struct {
	// Source is a local path or an s3://, http:// or https:// URL.
	Source string
	// Table overrides the name derived from Source. It is sanitized the same way.
	Table string
	// Delimiter overrides detection by extension.
	Delimiter rune
}

// LoadResult describes a completed load.
type LoadResult struct {
	Table    core.TableSchema
	Replaced bool
}

// Load reads req.Source, infers its column types, replaces the table in the
// store and records the table in schema.json.
//
// Loads on the same project are serialized. The table is committed before
// the schema document is written, so a reader that sees the new entry can
// query the table.
func (p *Pipeline) Load(ctx context.Context, req LoadRequest) (res *LoadResult, err error) {
	location := req.Source
	if !source.IsRemote(location) {
		if abs, aerr := filepath.Abs(location); aerr == nil {
			location = abs
		}
	}

	table := source.SanitizeTableName(req.Table)
	if table == "" {
		table = source.DeriveTableName(location)
	}
	if table == "" {
		return nil, fmt.Errorf("cannot derive a table name from %q, pass one explicitly", req.Source)
	}

	started := p.now()
	rec := &state.LoadRecord{Table: table, Source: location, StartedAt: started}
	defer func() {
		rec.Duration = p.now().Sub(started)
		p.recordLoad(ctx, rec, err)
	}()

	unlock, err := schema.Lock(ctx, p.cfg.ProjectDir, p.cfg.Lock)
	if err != nil {
		return nil, err
	}
	defer func() {
		if uerr := unlock(); uerr != nil {
			p.logger.Warn("failed to release project lock", "error", uerr)
		}
	}()

	// The project must be initialized before anything is written.
	ps, err := p.store.Read()
	if err != nil {
		return nil, err
	}

	r, err := source.Open(ctx, location, source.Options{Delimiter: req.Delimiter, Remote: p.cfg.Remote})
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	head, err := source.Sample(r, infer.SampleSize)
	if err != nil {
		return nil, &core.IOError{Path: location, Err: err}
	}
	if len(head) == 0 {
		return nil, &core.EmptyInputError{Path: location}
	}

	a, err := adapter.NewAdapter(p.cfg.Adapter, p.logger)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(ctx, p.cfg.Adapter); err != nil {
		return nil, &core.IOError{Path: storeLocation(p.cfg.Adapter.Path), Err: err}
	}
	defer func() { _ = a.Close() }()

	columns := infer.Infer(r.Headers(), head, a.DialectConfig())
	rec.Columns = len(columns)
	p.logger.Debug("inferred columns", "table", table, "columns", len(columns), "sampled", len(head))

	n, err := loader.New(a.Handle(), a.DialectConfig(), p.logger).Load(ctx, table, columns, source.Replay(head, r))
	if err != nil {
		var ioErr *core.IOError
		if errors.As(err, &ioErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load table %s: %w", table, err)
	}
	rec.RowCount = n

	ts := core.TableSchema{
		Name:     table,
		Columns:  columns,
		RowCount: n,
		Source:   location,
		LoadedAt: p.now().UTC(),
	}
	_, replaced := ps.Table(table)
	if err := p.store.Write(schema.Upsert(ps, ts)); err != nil {
		return nil, err
	}
	p.schemas.Invalidate()

	p.logger.Info("table loaded", "table", table, "rows", n, "replaced", replaced)
	return &LoadResult{Table: ts, Replaced: replaced}, nil
}
