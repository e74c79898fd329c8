package commands

import (
	"fmt"

	"github.com/leapstack-labs/analytics-agent/internal/server"
	"github.com/spf13/cobra"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port           int
	AllowedOrigins []string
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API used by the web UI.

Endpoints:
  GET  /health   liveness probe
  POST /ask      {"question": "...", "projectPath": "..."}
  GET  /tables   schema of a project
  GET  /history  recent loads and questions
  GET  /events   server-sent schema change events

Requests without projectPath use the current project.`,
		Example: `  analytics-agent serve
  analytics-agent serve --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: server.port, 3001)")
	cmd.Flags().StringSliceVar(&opts.AllowedOrigins, "allowed-origin", nil, "CORS origins allowed to call the API (default: any)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx, err := NewCommandContextWithoutProject(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg

	port := cfg.Server.Port
	if cmd.Flags().Changed("port") {
		port = opts.Port
	}

	var defaultProject string
	if cfg.InProject() {
		defaultProject = cfg.ProjectRoot
	} else {
		cmdCtx.Renderer.Warning("not inside a project: every request must name a projectPath")
	}

	srv := server.NewServer(server.Config{
		DefaultProject:    defaultProject,
		Port:              port,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		AllowedOrigins:    opts.AllowedOrigins,
		Logger:            cmdCtx.Logger,
	})

	cmdCtx.Renderer.Println(fmt.Sprintf("Serving analytics-agent API on http://localhost:%d", port))
	return srv.Serve(cmd.Context())
}
