package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/retrievalcore/engine/internal/config"
	"github.com/retrievalcore/engine/internal/output"
	"github.com/retrievalcore/engine/internal/search"
	"github.com/retrievalcore/engine/pkg/searcher"
)

type searchOptions struct {
	limit  int
	format string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the workspace",
		Long: `Search the workspace using hybrid dense+sparse retrieval.

Dense and sparse candidates are combined with reciprocal-rank fusion,
biased by the stability regulator, optionally diversified by adaptive
MMR, optionally widened by the exploration probe, and optionally
reranked by a cross-encoder backend.

Examples:
  retrieval-core search "what is a cache"
  retrieval-core search "steps to configure tls" --limit 5
  retrieval-core search "chapter summary" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	out := output.New(cmd.OutOrStdout())

	root, err := config.FindProjectRoot(".")
	if err != nil {
		return fmt.Errorf("find project root: %w", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// No embedder is wired here: embedding generation is an external
	// collaborator's responsibility. Without one, Search degrades to
	// sparse-only retrieval automatically.
	s, err := searcher.Open(cfg, nil)
	if err != nil {
		return fmt.Errorf("open workspace: %w", err)
	}
	defer func() { _ = s.Close() }()

	results, err := s.Search(ctx, query, search.SearchOptions{Limit: opts.limit})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if opts.format == "json" {
		return printSearchJSON(cmd, results)
	}
	return printSearchText(out, query, results)
}

func printSearchText(out *output.Writer, query string, results []*search.SearchResult) error {
	if len(results) == 0 {
		out.Status("", fmt.Sprintf("No results found for %q", query))
		return nil
	}

	hits := make([]output.SearchHit, len(results))
	for i, r := range results {
		hits[i] = output.SearchHit{
			Rank:        i + 1,
			Score:       r.Score,
			SourceFile:  r.SourceFile,
			HeadingPath: r.HeadingPath,
			ChunkType:   r.ChunkType,
			Snippet:     r.Text,
			Exploration: r.IsExploration,
		}
	}

	out.Statusf("", "Found %d results for %q:", len(results), query)
	out.Newline()
	out.Results(hits)
	return nil
}

func printSearchJSON(cmd *cobra.Command, results []*search.SearchResult) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
