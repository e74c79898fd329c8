package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/analytics-agent/internal/cli/output"
	intconfig "github.com/leapstack-labs/analytics-agent/internal/config"
	"github.com/leapstack-labs/analytics-agent/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init <name>",
		Short: "Initialize a new analytics project",
		Long: `Initialize a new analytics project in a new directory.

This creates:
  - data/ directory for the database
  - schema.json with no tables
  - config.json with the default store and LLM settings
  - README.md`,
		Example: `  analytics-agent init sales`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContextWithoutProject(cmd)
			if err != nil {
				return err
			}
			return runInit(cmdCtx.Renderer, args[0])
		},
	}
}

func runInit(r *output.Renderer, name string) error {
	dir, err := filepath.Abs(name)
	if err != nil {
		return err
	}
	projectName := filepath.Base(dir)

	if _, err := pipeline.Scaffold(dir, time.Now()); err != nil {
		return err
	}
	if err := intconfig.Write(dir, intconfig.New(projectName)); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte(projectReadme(projectName)), 0o644); err != nil { //nolint:gosec // README is public
		return fmt.Errorf("failed to write README.md: %w", err)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]string{"name": projectName, "path": dir})
	}

	r.Success(fmt.Sprintf("Project %q created", projectName))
	r.Println()
	r.Muted("  Next steps:")
	r.Println("  cd " + name)
	r.Println("  analytics-agent load data/your-file.csv")
	return nil
}

func projectReadme(name string) string {
	return fmt.Sprintf("# %[1]s\n\n"+
		"An analytics project powered by **analytics-agent**.\n\n"+
		"## Getting Started\n\n"+
		"1. Load your data:\n"+
		"   ```bash\n   analytics-agent load data/your-file.csv\n   ```\n\n"+
		"2. Ask a question:\n"+
		"   ```bash\n   analytics-agent ask \"What are the top 10 rows by revenue?\"\n   ```\n\n"+
		"3. Or start the server and use the web UI:\n"+
		"   ```bash\n   analytics-agent serve\n   ```\n\n"+
		"## Project Structure\n\n"+
		"```\n"+
		"%[1]s/\n"+
		"  data/          Your CSV files and database\n"+
		"  schema.json    Generated table schemas\n"+
		"  config.json    Project configuration\n"+
		"```\n", name)
}
