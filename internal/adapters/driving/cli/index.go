package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the corpus",
	Long: `Chunks the extracted corpus, fits the sparse model and writes dense
and sparse vectors into the index. Without --force an index that is
already complete is left untouched.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "wipe the index and rebuild from scratch")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	svc, err := ensureServices()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if indexForce {
		if err := svc.Index.ForceReindex(ctx); err != nil {
			return fmt.Errorf("reindexing: %w", err)
		}
	} else if err := svc.Index.EnsureIndexed(ctx); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	status, err := svc.Index.Status(ctx)
	if err != nil {
		return fmt.Errorf("reading index status: %w", err)
	}
	cmd.Printf("Index %s with %d entries\n", status.State, status.EntryCount)
	return nil
}
