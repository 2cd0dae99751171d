package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-desk/internal/connectors/filesystem"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Inspect indexed documents",
	Long: `View indexed documents by location. A location is a file path, or
"archive.zip :: entry" for a file inside a zip archive.`,
}

var documentInfoCmd = &cobra.Command{
	Use:   "info [location]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentInfo,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [location]",
	Short: "Print document content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var openCmd = &cobra.Command{
	Use:   "open [location]",
	Short: "Open a document in the default application",
	Long: `Opens the file behind a search result with the operating system's
default application. For a zip archive member the archive itself is opened.`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func init() {
	documentCmd.AddCommand(documentInfoCmd)
	documentCmd.AddCommand(documentContentCmd)
	rootCmd.AddCommand(documentCmd)
	rootCmd.AddCommand(openCmd)
}

func runDocumentInfo(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), filesystem.ResolveLocation(args[0]))
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("ID:       %d\n", doc.ID)
	cmd.Printf("Filename: %s\n", doc.Filename)
	cmd.Printf("Location: %s\n", doc.Location)
	cmd.Printf("File:     %s\n", doc.Location.RealPath())
	cmd.Printf("Length:   %d characters\n", len([]rune(doc.Content)))
	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), filesystem.ResolveLocation(args[0]))
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Println(doc.Content)
	return nil
}

func runOpen(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	location := filesystem.ResolveLocation(args[0])
	if err := documentService.Open(cmd.Context(), location); err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}

	cmd.Printf("Opened %s\n", location)
	return nil
}
