package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retrievalcore/engine/internal/config"
	"github.com/retrievalcore/engine/internal/output"
	"github.com/retrievalcore/engine/pkg/searcher"
)

func newRecordInteractionCmd() *cobra.Command {
	var query string
	var exploration bool

	cmd := &cobra.Command{
		Use:   "record-interaction <chunk-id>",
		Short: "Record a click on a search result",
		Long: `Records feedback on a search result: the chunk's trust score is
boosted unless the clicked result was an exploration probe, in which
case the interaction is logged but no boost is applied.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecordInteraction(cmd.Context(), cmd, args[0], query, exploration)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "The query that produced this result")
	cmd.Flags().BoolVar(&exploration, "exploration", false, "Mark this interaction as an exploration-probe click")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}

func runRecordInteraction(ctx context.Context, cmd *cobra.Command, chunkIDArg, query string, exploration bool) error {
	var chunkID int64
	if _, err := fmt.Sscanf(chunkIDArg, "%d", &chunkID); err != nil {
		return fmt.Errorf("invalid chunk id %q: %w", chunkIDArg, err)
	}

	root, err := config.FindProjectRoot(".")
	if err != nil {
		return fmt.Errorf("find project root: %w", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	s, err := searcher.Open(cfg, nil)
	if err != nil {
		return fmt.Errorf("open workspace: %w", err)
	}
	defer func() { _ = s.Close() }()

	if err := s.RecordInteraction(ctx, chunkID, query, exploration); err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}

	out := output.New(cmd.OutOrStdout())
	out.Success("interaction recorded")
	return nil
}
