package commands

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/analytics-agent/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables [table]",
		Short: "List loaded tables or show a table's columns",
		Example: `  analytics-agent tables
  analytics-agent tables sales -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd, false)
			if err != nil {
				return err
			}
			defer cleanup()

			var name string
			if len(args) > 0 {
				name = args[0]
			}
			return renderTables(cmdCtx, name)
		},
	}
}

// renderTables lists every table, or the columns of name when it is set.
func renderTables(cmdCtx *CommandContext, name string) error {
	ps, err := cmdCtx.Project.Pipeline.Schema()
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	if name != "" {
		ts, ok := ps.Table(name)
		if !ok {
			return fmt.Errorf("table %q is not loaded", name)
		}
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON(ts)
		}
		r.Header(2, ts.Name)
		r.KeyValue("Rows", r.Number(ts.RowCount))
		r.KeyValue("Source", ts.Source)
		r.KeyValue("Loaded", ts.LoadedAt.Local().Format(time.DateTime))
		r.Println()
		rows := make([]map[string]any, len(ts.Columns))
		for i, col := range ts.Columns {
			rows[i] = map[string]any{"column": col.Name, "type": col.Type.String(), "storage": col.StorageType}
		}
		return r.Table([]string{"column", "type", "storage"}, rows)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(ps.Tables)
	}
	if len(ps.Tables) == 0 {
		r.Muted("No tables loaded. Run 'analytics-agent load <file>' first.")
		return nil
	}
	rows := make([]map[string]any, len(ps.Tables))
	for i, ts := range ps.Tables {
		rows[i] = map[string]any{
			"table":   ts.Name,
			"rows":    r.Number(ts.RowCount),
			"columns": len(ts.Columns),
			"source":  ts.Source,
			"loaded":  ts.LoadedAt.Local().Format(time.DateTime),
		}
	}
	return r.Table([]string{"table", "rows", "columns", "source", "loaded"}, rows)
}
