package commands

import (
	"time"

	"github.com/leapstack-labs/analytics-agent/internal/cli/output"
	"github.com/leapstack-labs/analytics-agent/internal/state"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent loads and questions",
		Example: `  analytics-agent history
  analytics-agent history --limit 5 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "Maximum entries per section")

	return cmd
}

type historyView struct {
	Loads   []*state.LoadRecord  `json:"loads"`
	Queries []*state.QueryRecord `json:"queries"`
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	history := cmdCtx.Project.History()

	loads, err := history.ListLoads(ctx, opts.Limit)
	if err != nil {
		return err
	}
	queries, err := history.ListQueries(ctx, opts.Limit)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(historyView{Loads: loads, Queries: queries})
	}

	r.Header(2, "Loads")
	if len(loads) == 0 {
		r.Muted("No loads yet.")
	}
	for _, l := range loads {
		detail := l.StartedAt.Local().Format(time.DateTime) + " " + r.Number(l.RowCount) + " rows from " + l.Source
		if l.Error != "" {
			detail = l.StartedAt.Local().Format(time.DateTime) + " " + l.Error
		}
		r.StatusLine(l.Table, string(l.Status), detail)
	}
	r.Println()

	r.Header(2, "Questions")
	if len(queries) == 0 {
		r.Muted("No questions yet.")
	}
	for _, q := range queries {
		name := q.Question
		if name == "" {
			name = q.SQL
		}
		status := "failed"
		detail := q.StartedAt.Local().Format(time.DateTime) + " " + string(q.Outcome)
		if q.Outcome == state.OutcomeSuccess {
			status = "success"
			detail = q.StartedAt.Local().Format(time.DateTime) + " " + r.Number(int64(q.RowCount)) + " rows"
		} else if q.Reason != "" {
			detail += ": " + q.Reason
		}
		r.StatusLine(name, status, detail)
	}
	return nil
}
