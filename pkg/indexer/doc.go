// Package indexer provides the chunk-insertion boundary between an
// external ingestion pipeline (chunking, embedding, metadata extraction —
// all out of this module's scope) and the persistent store.
//
// # Architecture
//
//	┌───────────────────┐
//	│ external ingestion │  (chunking, embedding — not part of this module)
//	└─────────┬─────────┘
//	          │ []*store.Chunk
//	┌─────────▼─────────┐
//	│      Indexer       │  ← this package
//	│    (interface)     │
//	└─────────┬─────────┘
//	          │
//	┌─────────▼─────────┐
//	│  internal/store    │
//	└────────────────────┘
//
// # Usage
//
//	st, _ := store.Open(path)
//	idx := indexer.NewStoreIndexer(st)
//	err := idx.Index(ctx, chunks)
//
// # Thread Safety
//
// StoreIndexer is safe for concurrent use; it delegates directly to
// internal/store.MetadataStore, whose SQLite-backed implementation
// serializes writes internally.
package indexer
