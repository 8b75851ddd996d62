package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/adreview/internal/manifest"
	"github.com/joescharf/adreview/internal/queue"
)

var queueCmd = &cobra.Command{
	Use:   "queue <manifest>",
	Short: "Show the queue a manifest would produce",
	Long: `Load a manifest from a file path or http(s) URL and print the queue it
would produce. JSON arrays, YAML lists, HTML pages and plain text
(one URL per line) are accepted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return queueRun(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(queueCmd)
}

func queueRun(ctx context.Context, source string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	links, err := manifest.Load(ctx, source)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		ui.Info("Manifest %s lists no videos", source)
		return nil
	}

	store := queue.NewStore()
	items := store.AddURLs(links)

	table := ui.Table([]string{"#", "Name", "URL"})
	for i, item := range items {
		_ = table.Append([]string{fmt.Sprintf("%d", i+1), item.Name, item.Locator})
	}
	_ = table.Render()
	ui.Info("%d video(s) in queue", len(items))
	return nil
}
