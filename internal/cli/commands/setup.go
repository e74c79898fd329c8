package commands

import (
	"log/slog"
	"os"

	"github.com/leapstack-labs/analytics-agent/internal/cli/config"
	"github.com/leapstack-labs/analytics-agent/internal/cli/output"
	"github.com/leapstack-labs/analytics-agent/internal/project"
	"github.com/leapstack-labs/analytics-agent/internal/translator"
	"github.com/leapstack-labs/analytics-agent/pkg/core"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// newTranslator builds the translator for ask. Tests replace it.
var newTranslator = translator.New

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Project  *project.Project
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with the current project opened.
// When withTranslator is set the pipeline can answer questions.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command, withTranslator bool) (*CommandContext, func(), error) {
	cmdCtx, err := NewCommandContextWithoutProject(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := cmdCtx.Cfg.RequireProject(); err != nil {
		return nil, nil, err
	}

	var tr core.Translator
	if withTranslator {
		tr, err = newTranslator(cmdCtx.Cfg.TranslatorConfig(), cmdCtx.Logger)
		if err != nil {
			return nil, nil, err
		}
	}

	p, err := project.New(&cmdCtx.Cfg.ProjectConfig, tr, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Project = p

	cleanup := func() {
		if err := p.Close(); err != nil {
			cmdCtx.Logger.Warn("failed to close project", "error", err)
		}
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutProject creates a CommandContext without opening a project.
// Useful for commands that run outside a project directory.
func NewCommandContextWithoutProject(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.GetConfig(cmd.Context())
	if cfg == nil {
		var err error
		if cfg, err = config.LoadConfig(cmd.Flags()); err != nil {
			return nil, err
		}
	}
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}, nil
}

// Helper functions shared across commands

func stdinIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
