package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-index folders when their files change",
	Long: `Watches every registered folder and re-indexes a folder shortly after
files in it are created, changed, or removed. When index.interval is set,
every folder is also re-indexed on that interval.

Runs until Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if reindexer == nil {
		return errors.New("watcher not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd.Println("Watching registered folders. Press Ctrl-C to stop.")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return reindexer.Run(gctx)
	})
	if scheduler != nil {
		g.Go(func() error {
			err := scheduler.Start(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-gctx.Done()
			return scheduler.Stop()
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	cmd.Println("Stopped watching.")
	return nil
}
