package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the indexed corpus",
	Long: `Retrieves the most relevant chunks for the question and streams a
grounded answer. Sources cited by the answer are listed afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := ensureServices()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	stream, err := svc.Answer.Ask(ctx, args[0])
	if err != nil {
		return fmt.Errorf("answering: %w", err)
	}
	defer stream.Close()

	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			cmd.Println()
			return fmt.Errorf("streaming answer: %w", err)
		}
		cmd.Print(fragment)
	}
	cmd.Println()

	citations, err := stream.Citations()
	if err != nil {
		return fmt.Errorf("resolving citations: %w", err)
	}
	if len(citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, c := range citations {
			cmd.Printf("  - %s, page %d\n", c.DocumentID, c.Page)
		}
	}
	return nil
}
