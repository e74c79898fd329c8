package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/analytics-agent/internal/cli/output"
	"github.com/leapstack-labs/analytics-agent/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask a question about the loaded data",
		Long: `Translate a natural-language question into SQL, validate it and run it
against the project database.

Only read-only SELECT statements are ever executed. When invoked without
arguments on a terminal, ask opens an interactive session.`,
		Example: `  analytics-agent ask "What were total sales by region?"

  # Pipe a question
  echo "How many orders last month?" | analytics-agent ask

  # Interactive session
  analytics-agent ask`,
		RunE: runAsk,
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, true)
	if err != nil {
		return err
	}
	defer cleanup()

	var question string
	switch {
	case len(args) > 0:
		question = strings.Join(args, " ")
	case !stdinIsTerminal(cmd):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		question = string(content)
	default:
		return runAskREPL(cmd, cmdCtx)
	}

	return askAndRender(cmd.Context(), cmdCtx, question)
}

func askAndRender(ctx context.Context, cmdCtx *CommandContext, question string) error {
	res, err := cmdCtx.Project.Pipeline.Ask(ctx, question)
	r := cmdCtx.Renderer
	if err != nil {
		if res != nil && res.SQL != "" && r.EffectiveMode() != output.ModeJSON {
			r.SQL(res.SQL)
		}
		return err
	}
	return renderAsk(r, res)
}

func renderAsk(r *output.Renderer, res *pipeline.AskResult) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res)
	}

	r.Header(2, res.Title)
	r.SQL(res.SQL)
	r.Println()
	if err := r.Table(res.Columns, res.Results); err != nil {
		return err
	}
	if res.Truncated {
		r.Warning("results truncated at query.max_rows")
	}
	if res.Degraded {
		r.Warning("the model answered without the structured format; chart hints are defaults")
	}
	detail := "chart: " + res.ChartType
	if res.XAxis != "" || res.YAxis != "" {
		detail += fmt.Sprintf(" (x: %s, y: %s)", res.XAxis, res.YAxis)
	}
	r.Muted(detail)
	return nil
}
