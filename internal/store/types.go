// Package store provides the persistent embedded-database layer for the
// retrieval core: chunk records, the full-text inverted index built over
// them, the retrieval log, and workspace metadata.
package store

import (
	"context"
	"time"
)

// ChunkType is an open-set tag describing the structural role of a chunk.
// Unlike a closed Go enum, new tags may arrive from the ingestion
// collaborator without requiring a store migration.
type ChunkType string

// Recognized chunk-type tags. The set is open; callers may store any
// string, but only these participate in the chunk-type boost table in
// the search package's fusion weighting.
const (
	ChunkTypeText       ChunkType = "text"
	ChunkTypeSummary    ChunkType = "summary"
	ChunkTypeDefinition ChunkType = "definition"
	ChunkTypeExample    ChunkType = "example"
	ChunkTypeList       ChunkType = "list"
	ChunkTypeCode       ChunkType = "code"
	ChunkTypeTable      ChunkType = "table"
)

// Reserved workspace_metadata keys.
const (
	// MetaKeyEmbeddingDimension is the registered dimensionality guardrail
	// for the active workspace.
	MetaKeyEmbeddingDimension = "embedding_dimension"
)

// RerankerMeanKey returns the reserved metadata key holding a reranker
// model's persisted rolling mean.
func RerankerMeanKey(model string) string { return model + "_mean" }

// RerankerStdKey returns the reserved metadata key holding a reranker
// model's persisted rolling standard deviation.
func RerankerStdKey(model string) string { return model + "_std" }

// Chunk is the indexed unit: a piece of source-document text plus its
// structural metadata and embedding.
type Chunk struct {
	// ID is a monotonic integer identifier assigned by the store on insert.
	ID int64
	// SourceFile is the source-document display name.
	SourceFile string
	// DocID is a stable content-hash identifier for the source document.
	DocID string
	// Page is the 1-indexed page number within the document, 0 if not paginated.
	Page int
	// Ordinal is the intra-document chunk ordinal (0-indexed).
	Ordinal int
	// Text is the chunk body.
	Text string
	// Embedding is the dense embedding vector; its length must equal the
	// workspace's registered embedding dimension.
	Embedding []float32
	// EmbeddingModel is the embedding-model signature used to produce Embedding.
	EmbeddingModel string
	// EmbeddingDim caches len(Embedding) for quick guardrail checks without
	// materializing the vector.
	EmbeddingDim int
	// HeadingPath is the structural breadcrumb, e.g. "Chapter 3 > 3.2 Caches".
	HeadingPath string
	// HeadingLevel is the heading depth (0 = document root).
	HeadingLevel int
	// ChunkType is an open-set structural tag, see the ChunkType constants.
	ChunkType string
	// ListType, when ChunkType is "list", names the list kind (e.g. "ordered").
	ListType string
	// ListLength, when ChunkType is "list", is the number of list items.
	ListLength int
	// SentenceCount is the number of sentences in Text.
	SentenceCount int
	// CreatedAt is the chunk's creation timestamp.
	CreatedAt time.Time
	// BoostFactor accumulates non-exploration interaction feedback.
	// Default 1.0; never negative.
	BoostFactor float64
}

// RetrievalLogEntry is one row of the per-query retrieval log.
type RetrievalLogEntry struct {
	ID int64
	// Query is the raw query text.
	Query string
	// SemanticRank is the dense rank of the final top result, 0 if absent
	// from the dense list.
	SemanticRank int
	// KeywordRank is the sparse rank of the final top result, 0 if absent.
	KeywordRank int
	// FinalRank is the post-fusion rank of the top result (1 for the winner).
	FinalRank int
	// LatencyEmbedding, LatencySearch, LatencyFusion, LatencyRerank are
	// per-stage timings in milliseconds.
	LatencyEmbedding float64
	LatencySearch    float64
	LatencyFusion    float64
	LatencyRerank    float64
	// TopScore is the winning fused (or reranked) score.
	TopScore float64
	// MMRPenaltyTotal is the sum of diversity penalties applied during MMR.
	MMRPenaltyTotal float64
	// IsExploration marks a search whose results had an exploration probe
	// inserted (at rank 2), or an interaction recorded on a probe result.
	IsExploration bool
	// RankDelta is the fused top rank minus the baseline dense top rank.
	RankDelta int
	// Stability is the per-query stability score computed by the regulator.
	Stability float64
	// CreatedAt is when the row was appended.
	CreatedAt time.Time
}

// MetadataStore persists chunks, the retrieval log, and workspace
// key/value metadata. It is the sole contract between the retrieval
// engine and its embedded database.
type MetadataStore interface {
	// InsertChunk inserts a chunk and its full-text-index row atomically
	// and returns the assigned chunk ID. Insert failure is
	// storage-recoverable: callers log and continue, never aborting the batch.
	InsertChunk(ctx context.Context, c *Chunk) (int64, error)

	// ScanAllChunks streams every chunk in the workspace for dense search's
	// full scan.
	ScanAllChunks(ctx context.Context) ([]*Chunk, error)

	// GetChunk retrieves a chunk by ID.
	GetChunk(ctx context.Context, id int64) (*Chunk, error)

	// GetChunks retrieves chunks by ID in batch.
	GetChunks(ctx context.Context, ids []int64) ([]*Chunk, error)

	// KeywordQuery runs a full-text match against the inverted index and
	// returns up to limit chunks. Malformed queries degrade to an empty
	// result rather than an error.
	KeywordQuery(ctx context.Context, query string, limit int) ([]*Chunk, error)

	// BoostChunk increments a chunk's boost_factor by delta. Never called
	// for exploration-tagged interactions.
	BoostChunk(ctx context.Context, id int64, delta float64) error

	// GetMetadata reads a workspace_metadata value. ok is false if absent.
	GetMetadata(ctx context.Context, key string) (value string, ok bool, err error)

	// SetMetadata upserts a workspace_metadata value.
	SetMetadata(ctx context.Context, key, value string) error

	// AppendRetrievalLog appends one retrieval-log row.
	AppendRetrievalLog(ctx context.Context, entry *RetrievalLogEntry) (int64, error)

	// RecentRetrievalLogs returns up to limit most-recent non-exploration
	// log rows for the given exact query text, most-recent first.
	RecentRetrievalLogs(ctx context.Context, query string, limit int) ([]*RetrievalLogEntry, error)

	// CheckEmbeddingDimension enforces the embedding_dimension guardrail:
	// the first call for a workspace registers dim; every later call with
	// a different dim returns an errors.DimensionMismatch rather than
	// executing an insert or a search.
	CheckEmbeddingDimension(ctx context.Context, dim int) error

	// Count returns the number of chunks in the workspace.
	Count(ctx context.Context) (int, error)

	// Clear deletes all chunks, full-text rows, and retrieval-log rows.
	// Metadata rows survive a clear.
	Clear(ctx context.Context) error

	// Close releases the underlying database handle.
	Close() error
}

// CurrentSchemaVersion is the schema version this build expects, stored in
// the database's own user_version pragma.
const CurrentSchemaVersion = 1
