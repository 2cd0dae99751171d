package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Manage indexed folders",
	Long:  `Register, remove, or list the folders sercha-desk indexes.`,
}

var folderAddCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Register a folder for indexing",
	Long: `Registers a folder so it can be indexed. Adding a folder that is already
registered does nothing. Run 'sercha-desk index <path>' afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: runFolderAdd,
}

var folderRemoveCmd = &cobra.Command{
	Use:   "remove [path]",
	Short: "Unregister a folder and drop its documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runFolderRemove,
}

var folderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered folders",
	Args:  cobra.NoArgs,
	RunE:  runFolderList,
}

func init() {
	folderCmd.AddCommand(folderAddCmd)
	folderCmd.AddCommand(folderRemoveCmd)
	folderCmd.AddCommand(folderListCmd)
	rootCmd.AddCommand(folderCmd)
}

func runFolderAdd(cmd *cobra.Command, args []string) error {
	if folderService == nil {
		return errors.New("folder service not configured")
	}

	folder, err := folderService.Add(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to add folder: %w", err)
	}

	cmd.Printf("Added folder %s (%s)\n", folder.Path, folder.Alias)
	return nil
}

func runFolderRemove(cmd *cobra.Command, args []string) error {
	if folderService == nil {
		return errors.New("folder service not configured")
	}

	if err := folderService.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove folder: %w", err)
	}

	cmd.Printf("Removed folder %s\n", args[0])
	return nil
}

func runFolderList(cmd *cobra.Command, _ []string) error {
	if folderService == nil {
		return errors.New("folder service not configured")
	}

	folders, err := folderService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}

	if len(folders) == 0 {
		cmd.Println("No folders registered. Add one with 'sercha-desk folder add <path>'.")
		return nil
	}

	cmd.Println("Folders:")
	for i := range folders {
		cmd.Printf("  %-20s %s\n", folders[i].Alias, folders[i].Path)
	}
	return nil
}
