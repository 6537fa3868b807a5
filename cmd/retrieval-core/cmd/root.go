// Package cmd provides the CLI commands for retrieval-core.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/retrievalcore/engine/internal/logging"
	"github.com/retrievalcore/engine/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the retrieval-core CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retrieval-core",
		Short: "Hybrid dense+sparse retrieval engine",
		Long: `retrieval-core is a hybrid retrieval engine combining dense vector
search and sparse keyword search with reciprocal-rank fusion, adaptive
diversification, and optional cross-encoder reranking.

It runs entirely against a local SQLite-backed workspace database.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("retrieval-core version {{.Version}}\n")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newRecordInteractionCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
