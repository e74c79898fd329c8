package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/analytics-agent/internal/cli/output"
	"github.com/spf13/cobra"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Input string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run a SELECT statement against the project database",
		Long: `Run SQL directly against the project database, skipping translation.

The statement passes the same safety checks as generated SQL: a single
SELECT or WITH statement, run on a read-only connection.`,
		Example: `  analytics-agent query "SELECT region, SUM(amount) FROM sales GROUP BY region"

  # Read SQL from a file
  analytics-agent query -i report.sql

  # Output as JSON
  analytics-agent query "SELECT * FROM sales LIMIT 5" -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !stdinIsTerminal(cmd):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		return fmt.Errorf("no SQL given: pass it as an argument, with --input or on stdin")
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	return queryAndRender(cmd.Context(), cmdCtx, sqlQuery)
}

func queryAndRender(ctx context.Context, cmdCtx *CommandContext, sqlQuery string) error {
	res, err := cmdCtx.Project.Pipeline.Query(ctx, sqlQuery)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res)
	}
	if err := r.Table(res.Columns, res.Rows); err != nil {
		return err
	}
	if res.Truncated {
		r.Warning("results truncated at query.max_rows")
	}
	return nil
}
