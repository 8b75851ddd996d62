package cmd

import (
	"context"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/joescharf/adreview/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for agent-driven review",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

An agent can drive an in-process review session: queue URLs, rate
criteria, record decisions and export the CSV. Configure with:

  {
    "mcpServers": {
      "adreview": { "command": "adreview", "args": ["mcp"] }
    }
  }

Available tools: review_add_urls, review_state, review_set_criterion,
review_decide, review_clear, review_export_csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, shutdownSignals()...)
		defer stop()

		sess := newSession()
		defer func() { _ = sess.Clear() }()

		logger.Debug("mcp server starting", "version", buildVersion)
		return mcp.NewServer(sess, buildVersion).ServeStdio(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
