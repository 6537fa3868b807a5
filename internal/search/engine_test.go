package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalerrors "github.com/retrievalcore/engine/internal/errors"
	"github.com/retrievalcore/engine/internal/store"
)

// fakeEmbedder returns a fixed vector regardless of input text, which is
// sufficient for exercising the engine's cache/search wiring without a
// real embedding backend.
type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, f.err
}
func (f *fakeEmbedder) Dimensions() int   { return len(f.vec) }
func (f *fakeEmbedder) ModelName() string { return "fake" }

func newTestEngine(t *testing.T, cfg EngineConfig, embedder *fakeEmbedder) (*Engine, *store.SQLiteStore) {
	t.Helper()
	st, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	eng, err := NewEngine(st, embedder, cfg)
	require.NoError(t, err)
	return eng, st
}

func TestEngine_Search_EmptyStoreYieldsEmptyResult(t *testing.T) {
	cfg := DefaultEngineConfig()
	eng, _ := newTestEngine(t, cfg, &fakeEmbedder{vec: []float32{1, 0, 0}})

	results, err := eng.Search(context.Background(), "what is a cache?", SearchOptions{Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngine_Search_ExactCacheHitSkipsSecondSearch(t *testing.T) {
	cfg := DefaultEngineConfig()
	eng, st := newTestEngine(t, cfg, &fakeEmbedder{vec: []float32{1, 0, 0}})

	_, err := st.InsertChunk(context.Background(), &store.Chunk{
		SourceFile: "a.md", Text: "a cache is fast storage", Embedding: []float32{1, 0, 0},
	})
	require.NoError(t, err)

	first, err := eng.Search(context.Background(), "what is a cache?", SearchOptions{Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := eng.Search(context.Background(), "What Is A Cache?", SearchOptions{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEngine_Search_SemanticCacheHit(t *testing.T) {
	cfg := DefaultEngineConfig()
	embedder := &fakeEmbedder{vec: []float32{1, 0, 0}}
	eng, st := newTestEngine(t, cfg, embedder)

	_, err := st.InsertChunk(context.Background(), &store.Chunk{
		SourceFile: "a.md", Text: "a cache is fast storage", Embedding: []float32{1, 0, 0},
	})
	require.NoError(t, err)

	first, err := eng.Search(context.Background(), "tell me about caches", SearchOptions{Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// A near-identical, but not exact, query embedding should hit Layer 2.
	embedder.vec = []float32{0.999, 0.01, 0}
	second, err := eng.Search(context.Background(), "a completely different phrasing", SearchOptions{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEngine_Search_SummaryIntentTrimsToLimit(t *testing.T) {
	cfg := DefaultEngineConfig()
	eng, st := newTestEngine(t, cfg, &fakeEmbedder{vec: []float32{1, 0, 0}})

	for i := 0; i < 40; i++ {
		_, err := st.InsertChunk(context.Background(), &store.Chunk{
			SourceFile: "a.md", Text: "overview content", Embedding: []float32{1, 0, 0},
		})
		require.NoError(t, err)
	}

	results, err := eng.Search(context.Background(), "give me a summary", SearchOptions{Limit: 5})
	require.NoError(t, err)
	// limit=5, Summary multiple=6 -> retrievalLimit=30, so up to 30
	// candidates survive fusion before trimming. That intermediate count is
	// not visible here; this test checks only that the returned set is
	// still trimmed to Limit. The x6 multiplier itself is checked by
	// TestWeightsForIntent.
	assert.LessOrEqual(t, len(results), 5)
}

func TestEngine_Search_CriticalLatencyBypassesDenseSearch(t *testing.T) {
	cfg := DefaultEngineConfig()
	eng, st := newTestEngine(t, cfg, &fakeEmbedder{vec: []float32{1, 0, 0}})

	_, err := st.InsertChunk(context.Background(), &store.Chunk{
		SourceFile: "a.md", Text: "cache content here", Embedding: []float32{0, 1, 0}, // orthogonal: would not match dense
	})
	require.NoError(t, err)

	eng.mu.Lock()
	eng.latencyEMA = 5000 // seed past the 4000ms critical threshold
	eng.mu.Unlock()

	results, err := eng.Search(context.Background(), "cache", SearchOptions{Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	// Sparse-only fallback: semantic rank must be unset (dense never ran)
	// and the score is the sparse placeholder plus the stability bias
	// (fresh workspace: stability 1.0, General intent factor 0.5).
	assert.Equal(t, 0, results[0].SemanticRank)
	assert.InDelta(t, sparseScorePlaceholder+0.05, results[0].Score, 1e-9)
}

func TestEngine_RecordInteraction_ExplorationQuarantinesBoost(t *testing.T) {
	cfg := DefaultEngineConfig()
	eng, st := newTestEngine(t, cfg, &fakeEmbedder{vec: []float32{1, 0, 0}})

	id, err := st.InsertChunk(context.Background(), &store.Chunk{SourceFile: "a.md", Text: "hello"})
	require.NoError(t, err)

	require.NoError(t, eng.RecordInteraction(context.Background(), id, "q", true))

	got, err := st.GetChunk(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.BoostFactor) // unchanged default

	logs, err := st.RecentRetrievalLogs(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Empty(t, logs) // exploration rows excluded from the non-exploration window
}

func TestEngine_RecordInteraction_NonExplorationIncrementsBoost(t *testing.T) {
	cfg := DefaultEngineConfig()
	eng, st := newTestEngine(t, cfg, &fakeEmbedder{vec: []float32{1, 0, 0}})

	id, err := st.InsertChunk(context.Background(), &store.Chunk{SourceFile: "a.md", Text: "hello"})
	require.NoError(t, err)

	require.NoError(t, eng.RecordInteraction(context.Background(), id, "q", false))

	got, err := st.GetChunk(context.Background(), id)
	require.NoError(t, err)
	assert.InDelta(t, 1.1, got.BoostFactor, 1e-9)
}

func TestEngine_Search_NilEmbedderFallsBackToSparseOnlyRanking(t *testing.T) {
	cfg := DefaultEngineConfig()
	st, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	eng, err := NewEngine(st, nil, cfg)
	require.NoError(t, err)

	_, err = st.InsertChunk(context.Background(), &store.Chunk{SourceFile: "a.md", Text: "cache content"})
	require.NoError(t, err)

	results, err := eng.Search(context.Background(), "cache", SearchOptions{Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, 0, results[0].SemanticRank)
}

func TestEngine_Search_RejectsMismatchedQueryDimension(t *testing.T) {
	cfg := DefaultEngineConfig()
	eng, st := newTestEngine(t, cfg, &fakeEmbedder{vec: []float32{1, 0, 0}})

	_, err := st.InsertChunk(context.Background(), &store.Chunk{
		SourceFile: "a.md", Text: "cache content", Embedding: []float32{1, 0, 0},
	})
	require.NoError(t, err)

	// The insert above registers the dimension (3); a later embedder producing
	// a different length must be rejected by the guardrail, not silently
	// scored as zero-similarity.
	_, err = eng.Search(context.Background(), "cache", SearchOptions{Limit: 5})
	require.NoError(t, err)

	embedder := &fakeEmbedder{vec: []float32{1, 0, 0, 0}}
	eng2, err := NewEngine(st, embedder, cfg)
	require.NoError(t, err)

	_, err = eng2.Search(context.Background(), "cache please", SearchOptions{Limit: 5})
	require.Error(t, err)
	var dimErr *internalerrors.RetrievalError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, internalerrors.ErrCodeDimensionMismatch, dimErr.Code)
}

func TestEngine_LoadRerankStats_NoopWithoutRerankConfigured(t *testing.T) {
	cfg := DefaultEngineConfig()
	eng, _ := newTestEngine(t, cfg, &fakeEmbedder{vec: []float32{1, 0, 0}})
	assert.NoError(t, eng.LoadRerankStats(context.Background()))
}
