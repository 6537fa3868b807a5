package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retrievalcore/engine/internal/config"
	"github.com/retrievalcore/engine/internal/output"
	"github.com/retrievalcore/engine/internal/store"
)

type statsOutput struct {
	ChunkCount int `json:"chunk_count"`
}

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show workspace statistics",
		Long:  `Display the number of indexed chunks in the workspace.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runStats(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		return fmt.Errorf("find project root: %w", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open workspace store: %w", err)
	}
	defer func() { _ = st.Close() }()

	count, err := st.Count(ctx)
	if err != nil {
		return fmt.Errorf("count chunks: %w", err)
	}

	result := statsOutput{ChunkCount: count}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	out := output.New(cmd.OutOrStdout())
	out.Statusf("", "Chunks indexed: %d", result.ChunkCount)
	return nil
}
