// Package search implements the retrieval and ranking pipeline: dense
// vector search, sparse keyword search, reciprocal-rank fusion with
// intent-aware weighting, a two-layer query cache, adaptive MMR
// diversification, a stability regulator, an exploration probe, and
// optional cross-encoder reranking.
package search

import (
	"context"

	"github.com/retrievalcore/engine/internal/store"
)

// Intent classifies a query into one of the five tags the fusion stage
// uses to pick weights and chunk-type boosts.
type Intent string

const (
	IntentGeneral    Intent = "general"
	IntentDefinition Intent = "definition"
	IntentProcedure  Intent = "procedure"
	IntentSummary    Intent = "summary"
	IntentExample    Intent = "example"
)

// Classifier maps a query string to an Intent.
type Classifier interface {
	Classify(query string) Intent
}

// SearchOptions configures a single query.
type SearchOptions struct {
	// Limit is the number of results the caller wants back (default 10).
	Limit int
}

// SearchResult is a single ranked, enriched retrieval result.
type SearchResult struct {
	ChunkID      int64
	Text         string
	SourceFile   string
	DocID        string
	Page         int
	HeadingPath  string
	HeadingLevel int
	ChunkType    string

	// Score is the final fused (and, if reranking ran, reranked) score.
	Score float64

	SemanticRank int // 1-indexed dense rank, 0 if absent from the dense list.
	KeywordRank  int // 1-indexed sparse rank, 0 if absent from the sparse list.
	RerankRank   int // pre-rerank position preserved after reranking, 0 if not reranked.

	TrustScore    float64
	IsExploration bool
	Stability     float64
}

// denseCandidate is a dense-search hit before fusion.
type denseCandidate struct {
	Chunk      *store.Chunk
	Similarity float64
	TrustScore float64
}

// sparseCandidate is a sparse-search hit before fusion. Its Score is a
// fixed placeholder; only its rank matters, not its magnitude.
type sparseCandidate struct {
	Chunk *store.Chunk
	Score float64
}

// fusedCandidate carries a chunk through fusion, stability biasing, MMR,
// and exploration before becoming a SearchResult.
type fusedCandidate struct {
	Chunk         *store.Chunk
	Score         float64
	SemanticRank  int
	KeywordRank   int
	RerankRank    int
	TrustScore    float64
	RawCosine     float64
	IsExploration bool
}

// Reranker is what a cross-encoder backend must provide: synchronous
// batch scoring. Persisted calibration statistics are loaded and saved by
// RerankEngine, not by the backend.
type Reranker interface {
	// ScoreBatch scores query against documents (already truncated by the
	// caller) and returns one float per document, same order, in [0, 1]
	// from the backend's own scale (pre-calibration).
	ScoreBatch(ctx context.Context, query string, documents []string) ([]float64, error)
}
