// Package cli is the command-line driving adapter. It wires the
// configuration to the driven adapters and exposes the core services
// as cobra commands.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Pranavharshans/pdf-rag/internal/core/ports/driving"
	"github.com/Pranavharshans/pdf-rag/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfgPath string
	verbose bool
)

// Services holds the driving ports the commands run against. Tests
// inject fakes through SetServices; production wiring happens in
// bootstrap on first use.
type Services struct {
	Index     driving.IndexService
	Answer    driving.AnswerService
	Retriever driving.Retriever

	// Close releases adapter resources, nil when nothing needs it.
	Close func() error
}

var services *Services

// SetServices overrides the wired services. Passing nil restores
// bootstrap wiring.
func SetServices(s *Services) {
	services = s
}

var rootCmd = &cobra.Command{
	Use:   "pdfrag",
	Short: "Question answering over a PDF corpus with hybrid retrieval",
	Long: `pdfrag indexes an extracted PDF corpus into a hybrid dense+sparse
vector index and answers questions grounded in it, with citations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to the TOML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the CLI. The context bounds every command; cancelling
// it aborts in-flight indexing and answer streams.
func Execute(ctx context.Context) error {
	defer func() {
		if services != nil && services.Close != nil {
			if err := services.Close(); err != nil {
				logger.Warn("closing services: %v", err)
			}
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// ensureServices wires the production adapters lazily, once per
// process, so commands that never touch the pipeline (version, help)
// do not require configuration or API keys.
func ensureServices() (*Services, error) {
	if services != nil {
		return services, nil
	}

	wired, err := bootstrap(cfgPath)
	if err != nil {
		return nil, err
	}
	services = wired
	return services, nil
}

