package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/retrievalcore/engine/internal/config"
	"github.com/retrievalcore/engine/internal/output"
	"github.com/retrievalcore/engine/internal/store"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the workspace and configuration",
		Long: `Run diagnostics on the active workspace:

  - config file loads and validates
  - the workspace database opens (a store that fails its integrity
    check is discarded and recreated empty by the open, not reported)
  - the rerank backend endpoint is configured when reranking is enabled`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), cmd)
		},
	}
	return cmd
}

func runDoctor(ctx context.Context, cmd *cobra.Command) error {
	out := output.New(cmd.OutOrStdout())

	root, err := config.FindProjectRoot(".")
	if err != nil {
		out.Errorf("find project root: %v", err)
		return err
	}
	out.Successf("project root: %s", root)

	cfg, err := config.Load(root)
	if err != nil {
		out.Errorf("load config: %v", err)
		return err
	}
	out.Success("config valid")

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		out.Errorf("open workspace store: %v", err)
		return err
	}
	defer func() { _ = st.Close() }()

	count, err := st.Count(ctx)
	if err != nil {
		out.Errorf("query chunk count: %v", err)
		return err
	}
	out.Successf("workspace store opens, %d chunks indexed", count)

	if cfg.Rerank.Enabled {
		if cfg.Rerank.Endpoint == "" {
			out.Warning("reranking enabled but no endpoint configured")
		} else {
			out.Successf("reranking enabled, endpoint %s", cfg.Rerank.Endpoint)
		}
	} else {
		out.Status("", "reranking disabled")
	}

	return nil
}
