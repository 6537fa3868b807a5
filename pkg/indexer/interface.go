package indexer

import (
	"context"

	"github.com/retrievalcore/engine/internal/store"
)

// Indexer defines the contract for inserting already-chunked, already-
// embedded content into the persistent store. Chunking and embedding
// are an external collaborator's responsibility; this package only
// owns the store-insertion boundary.
//
// Implementations must be safe for concurrent use.
type Indexer interface {
	// Index inserts chunks into the store.
	//
	// Behavior:
	//   - Thread-safe: may be called concurrently
	//   - Empty slice is a no-op (returns nil)
	//   - A single chunk's insert failure is storage-recoverable: callers
	//     should log and continue rather than abort the batch
	Index(ctx context.Context, chunks []*store.Chunk) error

	// Clear removes all indexed content. Destructive; cannot be undone.
	Clear(ctx context.Context) error

	// Stats returns a snapshot of the current index size.
	Stats(ctx context.Context) (IndexStats, error)

	// Close releases resources held by the indexer.
	Close() error
}

// IndexStats holds a point-in-time summary of the index.
type IndexStats struct {
	// ChunkCount is the number of indexed chunks.
	ChunkCount int
}
