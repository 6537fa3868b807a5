package search

import (
	"context"
	"math"
	"sort"

	"github.com/retrievalcore/engine/internal/store"
)

// maxStabilityHistory is the most-recent-rows window the regulator reads
// when averaging historical rank deltas for a query.
const maxStabilityHistory = 10

// stabilityRankDeltaScale is the divisor turning an average rank delta
// into a [0, 1] stability penalty.
const stabilityRankDeltaScale = 5.0

// computeStability reads recent non-exploration retrieval-log rows for
// the exact query text and returns the stability score: 1 minus the mean
// absolute rank delta over the window divided by
// stabilityRankDeltaScale, floored at 0. Absent history
// (fresh workspace, or a schema predating rank_delta) defaults to 1.0.
func computeStability(ctx context.Context, st store.MetadataStore, query string) float64 {
	entries, err := st.RecentRetrievalLogs(ctx, query, maxStabilityHistory)
	if err != nil || len(entries) == 0 {
		return 1.0
	}

	var sum float64
	for _, e := range entries {
		sum += math.Abs(float64(e.RankDelta))
	}
	avg := sum / float64(len(entries))

	stability := 1 - avg/stabilityRankDeltaScale
	if stability < 0 {
		return 0
	}
	return stability
}

// stabilityIntentFactor is the intent-dependent bias multiplier:
// high-trust intents lock in established rankings harder than
// exploratory ones.
func stabilityIntentFactor(intent Intent) float64 {
	switch intent {
	case IntentDefinition:
		return 2.0
	case IntentProcedure:
		return 1.5
	case IntentSummary:
		return 1.0
	default:
		return 0.5
	}
}

// applyStabilityBias adds stability*intentFactor*0.1 to every candidate's
// fused score and resorts descending, stable on ties by the candidates'
// current relative order (their post-fusion order).
func applyStabilityBias(candidates []*fusedCandidate, stability float64, intent Intent) {
	bias := stability * stabilityIntentFactor(intent) * 0.1
	for _, c := range candidates {
		c.Score += bias
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}
