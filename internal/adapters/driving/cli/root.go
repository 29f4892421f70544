// Package cli provides the cobra command tree for ragkit.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragkit/internal/core/ports/driving"
	"github.com/custodia-labs/ragkit/internal/logger"
)

var (
	version = "dev"
	verbose bool

	retrievalService driving.RetrievalService
	ingestService    driving.IngestService
	settingsService  driving.SettingsService

	// configWatcher keeps long-running commands in sync with the config file.
	configWatcher func(ctx context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "ragkit",
	Short: "Retrieval-augmented context for generation prompts",
	Long: `ragkit stores knowledge documents in named domains and answers
queries with ranked documents plus an assembled context block.

Embeddings come from a remote provider with a local fallback.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices injects the services used by the commands.
func SetServices(retrieval driving.RetrievalService, ingest driving.IngestService, settings driving.SettingsService) {
	retrievalService = retrieval
	ingestService = ingest
	settingsService = settings
}

// SetConfigWatcher sets the function that reloads config while the MCP server runs.
func SetConfigWatcher(fn func(ctx context.Context) error) {
	configWatcher = fn
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// Verbose reports whether --verbose appears in args. The container is built
// before cobra parses flags, so main checks this early.
func Verbose(args []string) bool {
	for _, arg := range args {
		if arg == "--verbose" || arg == "-v" {
			return true
		}
		if arg == "--" {
			break
		}
	}
	return false
}
