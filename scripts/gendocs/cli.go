package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/analytics-agent/internal/cli"
	"github.com/leapstack-labs/analytics-agent/internal/cli/commands"
	clicfg "github.com/leapstack-labs/analytics-agent/internal/cli/config"
	"github.com/leapstack-labs/analytics-agent/internal/cli/output"
	"github.com/leapstack-labs/analytics-agent/internal/config"
	"github.com/leapstack-labs/analytics-agent/internal/source"
	"github.com/leapstack-labs/analytics-agent/internal/sqlguard"
	"github.com/spf13/cobra"
)

const binary = "analytics-agent"

// commandSections adds reference material a command's help text cannot carry.
var commandSections = map[string]func(w *MarkdownWriter){
	"load":  writeSourceSections,
	"ask":   writeREPLSection,
	"query": writeSafetySection,
}

// generateCLIDocs writes index.md and one page per visible command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rootCmd := cli.NewRootCmd()
	cmds := visibleCommands(rootCmd)

	if err := writePage(outDir, "index", renderCLIIndex(rootCmd, cmds)); err != nil {
		return err
	}
	for _, cmd := range cmds {
		if err := writePage(outDir, cmd.Name(), renderCommandPage(cmd)); err != nil {
			return err
		}
	}
	return nil
}

func writePage(outDir, name string, content []byte) error {
	if err := os.WriteFile(filepath.Join(outDir, name+".md"), content, 0600); err != nil {
		return fmt.Errorf("failed to write %s.md: %w", name, err)
	}
	log.Printf("  Generated %s.md", name)
	return nil
}

func visibleCommands(root *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "__complete" {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func renderCLIIndex(root *cobra.Command, cmds []*cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for "+binary)
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(binary + " loads CSV and TSV files into a local SQL store and answers natural-language questions about them.")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/analytics-agent/cmd/analytics-agent@latest")

	w.Header(2, "Commands")
	rows := make([][]string, 0, len(cmds))
	for _, cmd := range cmds {
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	writeFlagsTable(w, root.PersistentFlags())

	w.Header(2, "Output Modes")
	w.Paragraph("Selected with " + InlineCode("--output") + ". Warnings and errors always go to stderr.")
	modes := make([][]string, 0, len(output.Modes))
	for _, m := range output.Modes {
		modes = append(modes, []string{InlineCode(m), output.OutputMode(m).Description()})
	}
	w.Table([]string{"Mode", "Rendering"}, modes)

	w.Header(2, "Project Discovery")
	w.Paragraph("Without " + InlineCode("--project-dir") + ", commands search upward from the working directory for a directory holding both " +
		InlineCode(config.ConfigFileName) + " and " + InlineCode("schema.json") + ".")

	w.Header(2, "Environment Variables")
	w.Paragraph("Any configuration key can be overridden with " + InlineCode(config.EnvPrefix) +
		" and the upper-cased key, nested keys joined with a double underscore. Flags take precedence.")
	w.Table([]string{"Variable", "Description"}, [][]string{
		{InlineCode(config.EnvPrefix + "DATABASE"), "Store database path or connection URL"},
		{InlineCode(config.EnvPrefix + "STORE__TYPE"), "Store engine"},
		{InlineCode(config.EnvPrefix + "LLM__MODEL"), "Translator model"},
		{InlineCode(config.EnvPrefix + "LLM__API_KEY"), "Translator API key"},
		{InlineCode(config.EnvPrefix + "SERVER__PORT"), "HTTP server port"},
		{InlineCode("OPENAI_API_KEY"), "API key used when " + InlineCode("llm.api_key") + " is unset"},
	})

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode("0"), "Success"},
		{InlineCode("1"), "Error (check stderr for details)"},
	})
	return w.Bytes()
}

func renderCommandPage(cmd *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	w.CodeBlock("bash", strings.TrimSuffix(cmd.UseLine(), " [flags]"))

	if cmd.HasLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags())
	}

	if section, ok := commandSections[cmd.Name()]; ok {
		section(w)
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", cleanExample(cmd.Example))
	}

	w.Paragraph("Global options are listed in the [CLI reference](/cli/).")
	return w.Bytes()
}

func writeSourceSections(w *MarkdownWriter) {
	w.Header(2, "Sources")
	rows := make([][]string, 0, len(source.Locations))
	for _, loc := range source.Locations {
		rows = append(rows, []string{InlineCode(loc.Form), loc.Description})
	}
	w.Table([]string{"Location", "Description"}, rows)

	w.Header(3, "Compression")
	w.Paragraph("Compressed sources are decompressed by extension before parsing, and the extension is ignored when deriving the table name.")
	comp := make([][]string, 0, len(source.Compressions))
	for _, c := range source.Compressions {
		exts := c.Extensions()
		for i, e := range exts {
			exts[i] = InlineCode(e)
		}
		comp = append(comp, []string{c.String(), strings.Join(exts, ", ")})
	}
	w.Table([]string{"Format", "Extensions"}, comp)

	w.Header(3, "Delimiter")
	w.BulletList([]string{
		InlineCode(".tsv") + " and " + InlineCode(".tab") + " files are tab separated, everything else comma separated.",
		InlineCode("--delimiter") + " overrides the extension. It takes one character, or " + InlineCode("tab") + ".",
		"Quotes and newlines cannot be delimiters.",
	})
}

func writeREPLSection(w *MarkdownWriter) {
	w.Header(2, "Interactive Session")
	w.Paragraph("With no question and a terminal on stdin, " + InlineCode("ask") +
		" starts a session. Piped stdin is read as one question. Lines starting with a dot are commands:")
	rows := make([][]string, 0, len(commands.REPLCommands))
	for _, c := range commands.REPLCommands {
		rows = append(rows, []string{InlineCode(c.Usage()), c.Description})
	}
	w.Table([]string{"Command", "Description"}, rows)
	w.Paragraph("Session history is kept in " + InlineCode(clicfg.HistoryFile) + " under the project root.")
}

func writeSafetySection(w *MarkdownWriter) {
	w.Header(2, "Accepted SQL")
	w.Paragraph("Every statement must start with SELECT or WITH and hold a single statement. " +
		"These keywords are rejected anywhere in the text, including inside string literals:")
	kws := make([]string, len(sqlguard.ForbiddenKeywords))
	for i, k := range sqlguard.ForbiddenKeywords {
		kws[i] = InlineCode(k)
	}
	w.Paragraph(strings.Join(kws, ", "))
}
