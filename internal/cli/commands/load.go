package commands

import (
	"fmt"
	"path/filepath"

	"github.com/leapstack-labs/analytics-agent/internal/cli/output"
	"github.com/leapstack-labs/analytics-agent/internal/pipeline"
	"github.com/leapstack-labs/analytics-agent/internal/source"
	"github.com/spf13/cobra"
)

// LoadOptions holds options for the load command.
type LoadOptions struct {
	Table     string
	Delimiter string
}

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	opts := &LoadOptions{}

	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Load a CSV file into the project database",
		Long: `Load a delimited text file into the project database.

Column types are inferred from the first 100 rows. Loading a file whose
table already exists replaces the table and its schema entry.

Sources may be local paths (optionally .gz, .bz2, .xz or .zst compressed),
s3://bucket/key or http(s) URLs.`,
		Example: `  # Table name derived from the file name
  analytics-agent load data/sales.csv

  # Custom table name
  analytics-agent load exports/Q1.csv -n q1_revenue

  # Tab-separated input without a .tsv extension
  analytics-agent load dump.txt -d tab`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Table, "table-name", "n", "", "Custom table name (defaults to the file name)")
	cmd.Flags().StringVarP(&opts.Delimiter, "delimiter", "d", "", `Field delimiter: a single character, "tab" or "\t"`)

	return cmd
}

func runLoad(cmd *cobra.Command, file string, opts *LoadOptions) error {
	var delim rune
	if opts.Delimiter != "" {
		d, err := source.ParseDelimiter(opts.Delimiter)
		if err != nil {
			return err
		}
		delim = d
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := cmdCtx.Project.Pipeline.Load(cmd.Context(), pipeline.LoadRequest{
		Source:    file,
		Table:     opts.Table,
		Delimiter: delim,
	})
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res.Table)
	}

	verb := "Loaded"
	if res.Replaced {
		verb = "Reloaded"
	}
	r.Success(fmt.Sprintf("%s %s rows into %q", verb, r.Number(res.Table.RowCount), res.Table.Name))
	r.Println()
	r.Muted("  Schema:")
	for _, col := range res.Table.Columns {
		r.Printf("    %s %s\n", col.Name, r.Styles().Muted.Render(fmt.Sprintf("(%s → %s)", col.Type, col.StorageType)))
	}
	r.Println()
	r.Muted("  Database: " + relativeToCWD(cmdCtx.Cfg.DatabasePath()))
	return nil
}

func relativeToCWD(path string) string {
	abs, err := filepath.Abs(".")
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(abs, path); err == nil {
		return rel
	}
	return path
}
