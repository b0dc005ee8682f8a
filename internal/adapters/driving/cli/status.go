package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	Long:  `Reports the state of the vector index: empty, indexing or ready, and the number of stored entries.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	svc, err := ensureServices()
	if err != nil {
		return err
	}

	status, err := svc.Index.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading index status: %w", err)
	}

	cmd.Printf("State:   %s\n", status.State)
	cmd.Printf("Entries: %d\n", status.EntryCount)
	return nil
}
