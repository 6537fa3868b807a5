package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrievalcore/engine/internal/store"
)

func docChunk(id int64, docID, headingPath string) *store.Chunk {
	return &store.Chunk{ID: id, DocID: docID, HeadingPath: headingPath, Text: "text"}
}

func TestLambdaForQuery_ClampedToRange(t *testing.T) {
	assert.GreaterOrEqual(t, lambdaForQuery("", IntentGeneral), 0.2)
	assert.LessOrEqual(t, lambdaForQuery("a very long query with many many many many many many words indeed", IntentSummary), 0.8)
}

func TestLambdaForQuery_SummaryAndProcedureGetComplexityBonus(t *testing.T) {
	plain := lambdaForQuery("cache eviction policy", IntentGeneral)
	summary := lambdaForQuery("cache eviction policy", IntentSummary)
	assert.Greater(t, summary, plain)
}

func TestDocEntropyBits_AllSameDocIsZero(t *testing.T) {
	cands := []*fusedCandidate{
		{Chunk: docChunk(1, "docA", "h1")},
		{Chunk: docChunk(2, "docA", "h2")},
	}
	assert.Equal(t, 0.0, docEntropyBits(cands))
}

func TestDocEntropyBits_EvenSplitAcrossTwoDocsIsOneBit(t *testing.T) {
	cands := []*fusedCandidate{
		{Chunk: docChunk(1, "docA", "h1")},
		{Chunk: docChunk(2, "docB", "h2")},
	}
	assert.InDelta(t, 1.0, docEntropyBits(cands), 1e-9)
}

func TestDiversifier_Diversify_SeedsWithTopResult(t *testing.T) {
	d := NewDiversifier()
	ranked := []*fusedCandidate{
		{Chunk: docChunk(1, "docA", "h1"), Score: 0.9},
		{Chunk: docChunk(2, "docA", "h2"), Score: 0.8},
		{Chunk: docChunk(3, "docB", "h3"), Score: 0.7},
	}

	selected, penalty := d.Diversify("cache", IntentGeneral, ranked, 2)
	require.Len(t, selected, 2)
	assert.Equal(t, int64(1), selected[0].Chunk.ID)
	assert.GreaterOrEqual(t, penalty, 0.0)
}

func TestDiversifier_Diversify_PrefersOtherDocOverSameDocDuplicate(t *testing.T) {
	d := NewDiversifier()
	// Candidate 2 is same doc as the seed and scores slightly higher than
	// candidate 3 (different doc), but the same-doc penalty should flip the
	// MMR preference toward candidate 3 for a diversity-favoring lambda.
	ranked := []*fusedCandidate{
		{Chunk: docChunk(1, "docA", "h1"), Score: 1.0},
		{Chunk: docChunk(2, "docA", "h2"), Score: 0.55},
		{Chunk: docChunk(3, "docB", "h3"), Score: 0.50},
	}

	selected, _ := d.Diversify("short", IntentGeneral, ranked, 2)
	require.Len(t, selected, 2)
	assert.Equal(t, int64(3), selected[1].Chunk.ID)
}

func TestDiversifier_Diversify_NoopBelowTwoCandidates(t *testing.T) {
	d := NewDiversifier()
	ranked := []*fusedCandidate{{Chunk: docChunk(1, "docA", "h1"), Score: 0.9}}
	selected, penalty := d.Diversify("q", IntentGeneral, ranked, 5)
	assert.Equal(t, ranked, selected)
	assert.Equal(t, 0.0, penalty)
}

func TestDiversifier_UpdateEntropyEMA_WarmupThenSteadyRate(t *testing.T) {
	d := NewDiversifier()
	// Baseline seed is 1.0; feed a constant 0.0 observation and confirm the
	// EMA moves faster during warmup (alpha 0.3) than after (alpha 0.1).
	first := d.updateEntropyEMA(0.0)
	assert.InDelta(t, 0.7, first, 1e-9)

	for i := 0; i < mmrEntropyWarmupSessions-1; i++ {
		d.updateEntropyEMA(0.0)
	}
	preSteady := d.avgDocEntropy
	postSteady := d.updateEntropyEMA(0.0)
	assert.InDelta(t, preSteady*0.9, postSteady, 1e-9)
}
