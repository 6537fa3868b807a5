package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/retrievalcore/engine/internal/config"
	"github.com/retrievalcore/engine/internal/output"
	"github.com/retrievalcore/engine/internal/store"
	"github.com/retrievalcore/engine/pkg/indexer"
)

// ingestRecord is the on-disk shape of one pre-chunked, pre-embedded
// input record. Chunking and embedding are an external collaborator's
// responsibility; this command only owns the store-insertion boundary.
type ingestRecord struct {
	SourceFile     string    `json:"source_file"`
	DocID          string    `json:"doc_id"`
	Page           int       `json:"page"`
	Ordinal        int       `json:"ordinal"`
	Text           string    `json:"text"`
	Embedding      []float32 `json:"embedding"`
	EmbeddingModel string    `json:"embedding_model"`
	HeadingPath    string    `json:"heading_path"`
	HeadingLevel   int       `json:"heading_level"`
	ChunkType      string    `json:"chunk_type"`
	ListType       string    `json:"list_type"`
	ListLength     int       `json:"list_length"`
	SentenceCount  int       `json:"sentence_count"`
}

func newIngestCmd() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "ingest <chunks.jsonl>",
		Short: "Insert pre-chunked, pre-embedded records into the workspace",
		Long: `Reads a newline-delimited JSON file of chunk records — already
split and embedded by an external pipeline — and inserts them into the
workspace store.

Each line is one JSON object with at least "text" and "embedding".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd, args[0], batchSize)
		},
	}

	cmd.Flags().IntVar(&batchSize, "progress-every", 100, "Print a progress update every N records")

	return cmd
}

func runIngest(ctx context.Context, cmd *cobra.Command, path string, progressEvery int) error {
	out := output.New(cmd.OutOrStdout())

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

	idx := indexer.NewStoreIndexer(st)
	defer func() { _ = idx.Close() }()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var inserted, failed int
	now := time.Now()
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec ingestRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			failed++
			continue
		}

		chunk := &store.Chunk{
			SourceFile:     rec.SourceFile,
			DocID:          rec.DocID,
			Page:           rec.Page,
			Ordinal:        rec.Ordinal,
			Text:           rec.Text,
			Embedding:      rec.Embedding,
			EmbeddingModel: rec.EmbeddingModel,
			EmbeddingDim:   len(rec.Embedding),
			HeadingPath:    rec.HeadingPath,
			HeadingLevel:   rec.HeadingLevel,
			ChunkType:      rec.ChunkType,
			ListType:       rec.ListType,
			ListLength:     rec.ListLength,
			SentenceCount:  rec.SentenceCount,
			CreatedAt:      now,
			BoostFactor:    1.0,
		}

		if err := idx.Index(ctx, []*store.Chunk{chunk}); err != nil {
			failed++
			continue
		}
		inserted++

		if progressEvery > 0 && inserted%progressEvery == 0 {
			out.Statusf("", "ingested %d records so far", inserted)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	out.Successf("ingested %d records (%d failed)", inserted, failed)
	return nil
}
