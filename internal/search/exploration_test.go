package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplorationEligible(t *testing.T) {
	cases := []struct {
		name      string
		enabled   bool
		stability float64
		intent    Intent
		count     int
		want      bool
	}{
		{"disabled", false, 1.0, IntentGeneral, 5, false},
		{"empty results", true, 1.0, IntentGeneral, 0, false},
		{"below threshold", true, 0.5, IntentGeneral, 5, false},
		{"definition excluded", true, 1.0, IntentDefinition, 5, false},
		{"procedure excluded", true, 1.0, IntentProcedure, 5, false},
		{"eligible general", true, 0.6, IntentGeneral, 5, true},
		{"eligible summary", true, 1.0, IntentSummary, 5, true},
	}
	for _, tc := range cases {
		got := explorationEligible(tc.enabled, tc.stability, tc.intent, tc.count, DefaultStabilityThreshold)
		assert.Equalf(t, tc.want, got, tc.name)
	}
}

func TestSelectExplorationProbe_SkipsClickedAndLowSimilarity(t *testing.T) {
	dense := []denseCandidate{
		{Chunk: chunk(1, "text", 0), Similarity: 0.99, TrustScore: 1.5}, // rank 1, excluded by limit anyway
		{Chunk: chunk(2, "text", 0), Similarity: 0.5, TrustScore: 1.0},  // below similarity floor
		{Chunk: chunk(3, "text", 0), Similarity: 0.9, TrustScore: 1.8},  // clicked (trust > ceiling)
		{Chunk: chunk(4, "text", 0), Similarity: 0.7, TrustScore: 1.0},  // never clicked, clears floor
	}

	probe := selectExplorationProbe(dense, 1, DefaultTrustCeiling, DefaultSimilarityFloor)
	require.NotNil(t, probe)
	assert.Equal(t, int64(4), probe.Chunk.ID)
}

func TestSelectExplorationProbe_NoneFound(t *testing.T) {
	dense := []denseCandidate{{Chunk: chunk(1, "text", 0), Similarity: 0.9, TrustScore: 2.0}}
	assert.Nil(t, selectExplorationProbe(dense, 0, DefaultTrustCeiling, DefaultSimilarityFloor))
}

func TestInsertExplorationProbe_InsertsAtRankTwo(t *testing.T) {
	fused := []*fusedCandidate{
		{Chunk: chunk(1, "text", 0), Score: 1.0},
		{Chunk: chunk(2, "text", 0), Score: 0.5},
	}
	probe := &denseCandidate{Chunk: chunk(3, "text", 0), Similarity: 0.7, TrustScore: 1.0}

	result := insertExplorationProbe(fused, probe)
	require.Len(t, result, 3)
	assert.Equal(t, int64(1), result[0].Chunk.ID)
	assert.Equal(t, int64(3), result[1].Chunk.ID)
	assert.True(t, result[1].IsExploration)
	assert.InDelta(t, 0.95, result[1].Score, 1e-9)
	assert.Equal(t, int64(2), result[2].Chunk.ID)
}

func TestInsertExplorationProbe_NilProbeIsNoop(t *testing.T) {
	fused := []*fusedCandidate{{Chunk: chunk(1, "text", 0), Score: 1.0}}
	assert.Equal(t, fused, insertExplorationProbe(fused, nil))
}
