package search

import (
	"sort"

	"github.com/retrievalcore/engine/internal/store"
)

// RRFConstant is the default reciprocal-rank-fusion smoothing constant K,
// used when the engine config does not override it.
const RRFConstant = 60

// IntentWeights holds the semantic/keyword fusion weights and the
// retrieval-limit multiplier for one intent.
type IntentWeights struct {
	Semantic          float64
	Keyword           float64
	RetrievalMultiple int
}

// weightsForIntent returns the intent-aware weighting table.
func weightsForIntent(intent Intent) IntentWeights {
	switch intent {
	case IntentDefinition, IntentProcedure:
		return IntentWeights{Semantic: 0.35, Keyword: 0.65, RetrievalMultiple: 3}
	case IntentSummary:
		return IntentWeights{Semantic: 0.7, Keyword: 0.3, RetrievalMultiple: 6}
	default: // General, Example
		return IntentWeights{Semantic: 0.5, Keyword: 0.5, RetrievalMultiple: 4}
	}
}

// fuse combines dense and sparse candidate lists via reciprocal-rank
// fusion with smoothing constant rrfK, applies intent-aware weighting,
// chunk-type and hierarchy boosts, and returns the result sorted by fused
// score descending, stable on ties by insertion (first-seen) order.
func fuse(dense []denseCandidate, sparse []sparseCandidate, intent Intent, weights IntentWeights, rrfK int) []*fusedCandidate {
	byID := make(map[int64]*fusedCandidate)
	var order []int64

	getOrCreate := func(c *store.Chunk) *fusedCandidate {
		if existing, ok := byID[c.ID]; ok {
			return existing
		}
		fc := &fusedCandidate{Chunk: c}
		byID[c.ID] = fc
		order = append(order, c.ID)
		return fc
	}

	for rank, d := range dense {
		fc := getOrCreate(d.Chunk)
		fc.SemanticRank = rank + 1
		fc.TrustScore = d.TrustScore
		fc.RawCosine = d.Similarity
		fc.Score += weights.Semantic / float64(rrfK+rank+1)
	}
	for rank, s := range sparse {
		fc := getOrCreate(s.Chunk)
		fc.KeywordRank = rank + 1
		fc.Score += weights.Keyword / float64(rrfK+rank+1)
	}

	for _, id := range order {
		fc := byID[id]
		applyBoosts(fc, intent)
	}

	results := make([]*fusedCandidate, len(order))
	for i, id := range order {
		results[i] = byID[id]
	}

	stableSortByScoreDesc(results, order)
	return results
}

// applyBoosts adds the chunk-type and heading-hierarchy boosts on top of
// the weighted RRF score.
func applyBoosts(fc *fusedCandidate, intent Intent) {
	switch {
	case intent == IntentDefinition && fc.Chunk.ChunkType == string(store.ChunkTypeDefinition):
		fc.Score += 0.5*presentWeight(fc.SemanticRank) + 0.3*presentWeight(fc.KeywordRank)
	case intent == IntentSummary && fc.Chunk.ChunkType == string(store.ChunkTypeSummary):
		fc.Score += 0.5*presentWeight(fc.SemanticRank) + 0.3*presentWeight(fc.KeywordRank)
	case intent == IntentProcedure && fc.Chunk.ChunkType == string(store.ChunkTypeList):
		fc.Score += 0.3
	case intent == IntentExample && fc.Chunk.ChunkType == string(store.ChunkTypeExample):
		fc.Score += 0.4
	}

	if intent == IntentSummary && fc.Chunk.HeadingLevel == 1 {
		fc.Score += 0.2
	}
	if intent == IntentDefinition && fc.Chunk.HeadingLevel > 1 {
		fc.Score += 0.1
	}
}

// presentWeight is 1 when a candidate has a rank on that side (appeared
// in the corresponding list) and 0 otherwise, so the dense/sparse-side
// chunk-type boosts only apply to the side the chunk actually appeared on.
func presentWeight(rank int) float64 {
	if rank > 0 {
		return 1
	}
	return 0
}

// stableSortByScoreDesc sorts by descending Score, breaking ties by the
// original insertion order recorded in seenOrder.
func stableSortByScoreDesc(results []*fusedCandidate, seenOrder []int64) {
	pos := make(map[int64]int, len(seenOrder))
	for i, id := range seenOrder {
		pos[id] = i
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return pos[results[i].Chunk.ID] < pos[results[j].Chunk.ID]
	})
}
