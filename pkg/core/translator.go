package core

import "context"

// Default presentation values applied when the translator omits them.
const (
	DefaultChartType = "table"
	DefaultTitle     = "Query Results"
)

// Translation is the parsed output of a natural-language-to-SQL translator.
// Only SQL is ever executed; the remaining fields are passed through to the
// renderer untouched.
type Translation struct {
	SQL       string `json:"sql"`
	ChartType string `json:"chartType"`
	XAxis     string `json:"xAxis"`
	YAxis     string `json:"yAxis"`
	Title     string `json:"title"`

	// Degraded is set when the SQL was recovered by pattern match
	// instead of being read from a well-formed response.
	Degraded bool `json:"-"`
}

// Translator turns a question into a candidate SQL query against a schema.
type Translator interface {
	Generate(ctx context.Context, question string, schema *ProjectSchema) (*Translation, error)
}

// TranslatorFunc adapts an ordinary function to the Translator interface.
type TranslatorFunc func(ctx context.Context, question string, schema *ProjectSchema) (*Translation, error)

// Generate calls f(ctx, question, schema).
func (f TranslatorFunc) Generate(ctx context.Context, question string, schema *ProjectSchema) (*Translation, error) {
	return f(ctx, question, schema)
}
