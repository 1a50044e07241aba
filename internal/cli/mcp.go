package cli

import (
	"github.com/spf13/cobra"

	"github.com/akolanti/docsync/internal/mcpserver"
)

func MCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve search_knowledge and sync_knowledge over MCP stdio",
		Long: `Starts a Model Context Protocol server on stdin/stdout so an agent can
query and refresh the collection. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd, needs{llm: true, runs: true})
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := mcpserver.NewServer(a.svc, a.runs, mcpserver.Defaults{
				SourceDir:  a.cfg.SourceDir,
				Collection: a.cfg.Collection,
				TopK:       a.cfg.TopK,
			})
			if err != nil {
				return err
			}
			logger.Info("mcp server ready", "collection", a.cfg.Collection)
			return srv.Run(ctx)
		},
	}
}
