package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
)

var indexAll bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a registered folder",
	Long: `Walks a registered folder, extracts text from every supported file and
zip archive, and replaces the folder's previous index.

Press Ctrl-C to stop. Files processed before the interruption stay indexed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVarP(&indexAll, "all", "a", false, "index every registered folder")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}
	if indexAll == (len(args) == 1) {
		return errors.New("specify a folder path or --all")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := newProgressPrinter(cmd.OutOrStdout())
	if indexAll {
		return indexEveryFolder(ctx, cmd, progress)
	}
	return indexOneFolder(ctx, cmd, args[0], progress)
}

func indexOneFolder(ctx context.Context, cmd *cobra.Command, path string, progress *progressPrinter) error {
	run, err := indexService.Start(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to start indexing: %w", err)
	}

	var summary domain.IndexSummary
	var g errgroup.Group
	g.Go(func() error {
		for ev := range run.Events() {
			if ev.Kind == domain.IndexEventProgress {
				progress.print(ev.Message)
			}
		}
		return nil
	})
	g.Go(func() error {
		summary = run.Wait()
		return nil
	})
	_ = g.Wait()
	progress.finish()

	if summary.Err != nil {
		return fmt.Errorf("indexing failed: %w", summary.Err)
	}
	cmd.Println(formatSummary(run.Folder(), summary))
	return nil
}

func indexEveryFolder(ctx context.Context, cmd *cobra.Command, progress *progressPrinter) error {
	summaries, err := indexService.IndexAll(ctx, func(folder string, ev domain.IndexEvent) {
		if ev.Kind == domain.IndexEventProgress {
			progress.print(ev.Message)
		}
	})
	progress.finish()
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if len(summaries) == 0 {
		cmd.Println("No folders registered. Add one with 'sercha-desk folder add <path>'.")
		return nil
	}

	folders := make([]string, 0, len(summaries))
	for folder := range summaries {
		folders = append(folders, folder)
	}
	sort.Strings(folders)
	for _, folder := range folders {
		cmd.Println(formatSummary(folder, summaries[folder]))
	}
	return nil
}

// formatSummary renders a run's outcome on one line.
func formatSummary(folder string, s domain.IndexSummary) string {
	line := fmt.Sprintf("%s: indexed %d, skipped %d", folder, s.Indexed, s.Skipped)
	if s.Err != nil {
		line += fmt.Sprintf(" (failed: %v)", s.Err)
	}
	if s.Cancelled {
		line += " (cancelled)"
	}
	return line
}

// progressPrinter streams progress messages. On a terminal each message
// overwrites the previous one; otherwise every message gets its own line.
type progressPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	inPlace bool
	dirty   bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, inPlace: isTerminal(w)}
}

func (p *progressPrinter) print(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inPlace {
		fmt.Fprintf(p.w, "\r\033[K%s", msg)
		p.dirty = true
		return
	}
	fmt.Fprintln(p.w, msg)
}

// finish terminates an in-place progress line.
func (p *progressPrinter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dirty {
		fmt.Fprint(p.w, "\r\033[K")
		p.dirty = false
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
