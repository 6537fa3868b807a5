package indexer

import (
	"context"
	"fmt"
	"log/slog"

	internalerrors "github.com/retrievalcore/engine/internal/errors"
	"github.com/retrievalcore/engine/internal/store"
)

// StoreIndexer is the default Indexer: it inserts chunks directly into
// a persistent store.MetadataStore. Per-chunk insert failures are logged
// and skipped rather than aborting the batch.
type StoreIndexer struct {
	store store.MetadataStore
}

var _ Indexer = (*StoreIndexer)(nil)

// NewStoreIndexer wraps st as an Indexer.
func NewStoreIndexer(st store.MetadataStore) *StoreIndexer {
	return &StoreIndexer{store: st}
}

// Index inserts each chunk, continuing past individual failures.
func (idx *StoreIndexer) Index(ctx context.Context, chunks []*store.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	var failures int
	for _, c := range chunks {
		if _, err := idx.store.InsertChunk(ctx, c); err != nil {
			failures++
			// Keep an already-classified error's code (e.g. a dimension
			// mismatch from the guardrail) instead of re-tagging it.
			werr, ok := err.(*internalerrors.RetrievalError)
			if !ok {
				werr = internalerrors.Wrap(internalerrors.ErrCodeInsertFailed, err)
			}
			slog.Warn("chunk_insert_failed",
				slog.String("code", werr.Code),
				slog.String("source_file", c.SourceFile),
				slog.Int("ordinal", c.Ordinal),
				slog.String("error", err.Error()))
		}
	}

	if failures == len(chunks) {
		return fmt.Errorf("all %d chunk inserts failed", failures)
	}
	return nil
}

// Clear removes every chunk, FTS row, and retrieval-log row.
func (idx *StoreIndexer) Clear(ctx context.Context) error {
	return idx.store.Clear(ctx)
}

// Stats returns the current chunk count.
func (idx *StoreIndexer) Stats(ctx context.Context) (IndexStats, error) {
	count, err := idx.store.Count(ctx)
	if err != nil {
		return IndexStats{}, err
	}
	return IndexStats{ChunkCount: count}, nil
}

// Close releases the underlying store handle.
func (idx *StoreIndexer) Close() error {
	return idx.store.Close()
}
