package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/leapstack-labs/analytics-agent/internal/state"
	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

// ErrEmptyQuestion is returned by Ask for a blank question.
var ErrEmptyQuestion = errors.New("question is required")

// ErrNoTranslator is returned by Ask when the pipeline has no translator.
var ErrNoTranslator = errors.New("no translator configured")

// AskResult is the answer to a natural-language question.
// The presentation fields are passed through from the translator unchanged.
type AskResult struct {
	Question  string           `json:"question"`
	SQL       string           `json:"sql"`
	ChartType string           `json:"chartType"`
	XAxis     string           `json:"xAxis"`
	YAxis     string           `json:"yAxis"`
	Title     string           `json:"title"`
	Results   []map[string]any `json:"results"`
	RowCount  int              `json:"rowCount"`
	Columns   []string         `json:"columns"`
	Truncated bool             `json:"truncated,omitempty"`
	Degraded  bool             `json:"degraded,omitempty"`
}

// Ask translates question into SQL against the project schema, validates
// it and executes it on a read-only handle.
//
// A project without tables fails with core.ErrNoTables before the
// translator is called. Rejected SQL is never executed; the returned
// *core.ValidationError carries it. When the error happens after
// translation, the partial result still carries the SQL.
func (p *Pipeline) Ask(ctx context.Context, question string) (*AskResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if p.cfg.Translator == nil {
		return nil, ErrNoTranslator
	}

	ps, err := p.Schema()
	if err != nil {
		return nil, err
	}
	if len(ps.Tables) == 0 {
		return nil, core.ErrNoTables
	}

	started := p.now()
	rec := &state.QueryRecord{Question: question, StartedAt: started}
	result, err := p.ask(ctx, question, ps)
	rec.Duration = p.now().Sub(started)
	if result != nil {
		rec.SQL = result.SQL
		rec.RowCount = result.RowCount
		rec.Degraded = result.Degraded
	}
	p.recordQuery(ctx, rec, err)

	if err != nil {
		p.logger.Debug("ask failed", "kind", core.ErrorKind(err), "error", err)
	} else {
		p.logger.Debug("ask answered", "rows", result.RowCount, "degraded", result.Degraded)
	}
	return result, err
}

func (p *Pipeline) ask(ctx context.Context, question string, ps *core.ProjectSchema) (*AskResult, error) {
	tr, err := p.cfg.Translator.Generate(ctx, question, ps)
	if err != nil {
		var te *core.TranslatorError
		if !errors.As(err, &te) {
			err = &core.TranslatorError{Err: err}
		}
		return nil, err
	}
	if tr == nil || strings.TrimSpace(tr.SQL) == "" {
		return nil, &core.TranslatorError{Err: errors.New("translator returned no SQL")}
	}

	result := &AskResult{
		Question:  question,
		SQL:       tr.SQL,
		ChartType: tr.ChartType,
		XAxis:     tr.XAxis,
		YAxis:     tr.YAxis,
		Title:     tr.Title,
		Degraded:  tr.Degraded,
	}

	// Only the SQL reaches the store; the executor validates it first.
	res, err := p.exec.Execute(ctx, tr.SQL)
	if err != nil {
		return result, err
	}
	result.Results = res.Rows
	result.RowCount = len(res.Rows)
	result.Columns = res.Columns
	result.Truncated = res.Truncated
	return result, nil
}
