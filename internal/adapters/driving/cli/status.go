package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics",
	Long:  `Shows how many documents and embeddings are stored and when each folder was last indexed.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	stats, err := documentService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	cmd.Printf("Documents:  %d\n", stats.Documents)
	cmd.Printf("Embeddings: %d\n", stats.Embeddings)
	cmd.Printf("Folders:    %d\n", len(stats.Folders))

	for _, fs := range stats.Folders {
		cmd.Println()
		cmd.Printf("  %s (%s)\n", fs.Folder.Alias, fs.Folder.Path)
		if indexService != nil {
			cmd.Printf("    State:    %s\n", indexService.Status(fs.Folder.Path))
		}
		if fs.LastRun == nil {
			cmd.Println("    Last run: never")
			continue
		}
		run := fs.LastRun
		line := fmt.Sprintf("%s, indexed %d, skipped %d in %s",
			run.FinishedAt.Local().Format(time.DateTime), run.Indexed, run.Skipped,
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
		if run.Cancelled {
			line += " (cancelled)"
		}
		cmd.Printf("    Last run: %s\n", line)
	}
	return nil
}
