package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/analytics-agent/internal/cli/config"
	"github.com/spf13/cobra"
)

const askPrompt = "ask> "

func runAskREPL(cmd *cobra.Command, cmdCtx *CommandContext) error {
	ctx := cmd.Context()
	r := cmdCtx.Renderer

	// Setup history file (project-local)
	historyFile := filepath.Join(cmdCtx.Cfg.ProjectRoot, config.HistoryFile)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          askPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newAskCompleter(cmdCtx),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r.Printf("analytics-agent (%s)\n", cmdCtx.Cfg.Name)
	r.Println("Type a question, .help for commands, .quit to exit")
	r.Println()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(cmd, cmdCtx, line); quit {
				break
			}
			continue
		}

		if err := askAndRender(ctx, cmdCtx, line); err != nil {
			r.Error(err.Error())
		}
		r.Println()
	}

	return nil
}

// handleDotCommand runs a REPL command and reports whether the session ends.
func handleDotCommand(cmd *cobra.Command, cmdCtx *CommandContext, line string) bool {
	r := cmdCtx.Renderer
	command, rest, _ := strings.Cut(line, " ")

	switch strings.ToLower(command) {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(cmd.OutOrStdout())

	case ".tables":
		if err := renderTables(cmdCtx, ""); err != nil {
			r.Error(err.Error())
		}

	case ".schema":
		if strings.TrimSpace(rest) == "" {
			r.Error("Usage: .schema <table>")
			break
		}
		if err := renderTables(cmdCtx, strings.TrimSpace(rest)); err != nil {
			r.Error(err.Error())
		}

	case ".sql":
		if strings.TrimSpace(rest) == "" {
			r.Error("Usage: .sql <SELECT statement>")
			break
		}
		if err := queryAndRender(cmd.Context(), cmdCtx, rest); err != nil {
			r.Error(err.Error())
		}

	case ".clear":
		r.Printf("\033[H\033[2J")

	default:
		r.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}
	return false
}

// REPLCommand is a dot-command of the interactive ask session.
type REPLCommand struct {
	Name        string
	Args        string
	Description string
}

// REPLCommands lists the dot-commands of the interactive ask session.
var REPLCommands = []REPLCommand{
	{Name: ".help", Description: "Show this help message"},
	{Name: ".tables", Description: "List loaded tables"},
	{Name: ".schema", Args: "<name>", Description: "Show the columns of a table"},
	{Name: ".sql", Args: "<query>", Description: "Run a SELECT statement directly"},
	{Name: ".clear", Description: "Clear the screen"},
	{Name: ".quit", Description: "Exit the session (also .exit)"},
}

// Usage returns the command with its arguments.
func (c REPLCommand) Usage() string {
	if c.Args == "" {
		return c.Name
	}
	return c.Name + " " + c.Args
}

func printREPLHelp(w io.Writer) {
	var b strings.Builder
	b.WriteString("\nCommands:\n")
	for _, c := range REPLCommands {
		fmt.Fprintf(&b, "  %-16s%s\n", c.Usage(), c.Description)
	}
	b.WriteString("\nAnything else is asked as a question.\n")
	_, _ = fmt.Fprint(w, b.String())
}

// newAskCompleter completes dot-commands and table names.
func newAskCompleter(cmdCtx *CommandContext) *readline.PrefixCompleter {
	var tables []readline.PrefixCompleterInterface
	if ps, err := cmdCtx.Project.Pipeline.Schema(); err == nil {
		for _, name := range ps.TableNames() {
			tables = append(tables, readline.PcItem(name))
		}
	}

	items := make([]readline.PrefixCompleterInterface, 0, len(REPLCommands)+1)
	for _, c := range REPLCommands {
		if c.Name == ".schema" {
			items = append(items, readline.PcItem(c.Name, tables...))
			continue
		}
		items = append(items, readline.PcItem(c.Name))
	}
	items = append(items, readline.PcItem(".exit"))
	return readline.NewPrefixCompleter(items...)
}
