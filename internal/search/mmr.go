package search

import (
	"math"
	"strings"
	"sync"
)

// mmrDocEntropyBaseline is the EMA seed for the document-distribution
// entropy tracked across a session. A fresh session with no prior
// signal assumes near-maximal diversity until evidence says otherwise.
const mmrDocEntropyBaseline = 1.0

// mmrEntropyWarmupSessions is how many sessions use the faster warmup
// EMA rate (alpha 0.3) before settling to the slower steady-state rate
// (alpha 0.1).
const mmrEntropyWarmupSessions = 10

// Diversifier applies adaptive MMR diversity selection. It tracks
// a per-session EMA of document-distribution entropy, so it is scoped to
// one retrieval-engine instance rather than a process-wide singleton
// — multiple workspaces each get their own Diversifier.
type Diversifier struct {
	mu            sync.Mutex
	avgDocEntropy float64
	sessionCount  int
}

// NewDiversifier returns a Diversifier seeded at the EMA baseline.
func NewDiversifier() *Diversifier {
	return &Diversifier{avgDocEntropy: mmrDocEntropyBaseline}
}

// lambdaForQuery computes the sigmoid-tuned MMR lambda from query
// complexity: more words and diversity-hungry intents (Summary,
// Procedure) push lambda toward relevance; short, general queries push
// it toward diversity. Clamped to [0.2, 0.8].
func lambdaForQuery(query string, intent Intent) float64 {
	wordCount := len(strings.Fields(query))
	complexity := float64(wordCount)/10 + intentComplexityBonus(intent)

	lambda := 1 / (1 + math.Exp(-5*(complexity-0.5)))
	if lambda < 0.2 {
		return 0.2
	}
	if lambda > 0.8 {
		return 0.8
	}
	return lambda
}

func intentComplexityBonus(intent Intent) float64 {
	if intent == IntentSummary || intent == IntentProcedure {
		return 0.5
	}
	return 0
}

// docEntropyBits computes the Shannon entropy, in bits, of the docId
// distribution across candidates.
func docEntropyBits(candidates []*fusedCandidate) float64 {
	if len(candidates) == 0 {
		return 0
	}
	counts := make(map[string]int, len(candidates))
	for _, c := range candidates {
		counts[c.Chunk.DocID]++
	}
	n := float64(len(candidates))
	var entropy float64
	for _, count := range counts {
		p := float64(count) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// updateEntropyEMA folds a fresh entropy observation into the running
// average. The warmup rate (0.3) applies for the first
// mmrEntropyWarmupSessions sessions, then the EMA settles to 0.1.
func (d *Diversifier) updateEntropyEMA(observed float64) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	alpha := 0.1
	if d.sessionCount < mmrEntropyWarmupSessions {
		alpha = 0.3
	}
	d.avgDocEntropy = (1-alpha)*d.avgDocEntropy + alpha*observed
	d.sessionCount++
	return d.avgDocEntropy
}

// Diversify greedily selects up to limit candidates from ranked (already
// sorted by fused score descending), applying the document- and
// heading-path diversity penalties. It returns the selected candidates
// in selection order and the sum of penalties applied.
func (d *Diversifier) Diversify(query string, intent Intent, ranked []*fusedCandidate, limit int) ([]*fusedCandidate, float64) {
	if len(ranked) <= 1 || limit <= 0 {
		return ranked, 0
	}

	avgEntropy := d.updateEntropyEMA(docEntropyBits(ranked))
	lambda := lambdaForQuery(query, intent)

	selected := []*fusedCandidate{ranked[0]}
	seenDocs := map[string]bool{ranked[0].Chunk.DocID: true}
	seenHeadings := map[string]bool{ranked[0].Chunk.HeadingPath: true}
	remaining := append([]*fusedCandidate(nil), ranked[1:]...)

	var penaltyTotal float64

	for len(selected) < limit && len(remaining) > 0 {
		bestIdx := -1
		bestMMR := math.Inf(-1)
		bestPenalty := 0.0

		for i, cand := range remaining {
			penalty := 0.0
			if seenDocs[cand.Chunk.DocID] {
				penalty += 0.15 * (1.1 - avgEntropy)
			}
			if seenHeadings[cand.Chunk.HeadingPath] {
				penalty += 0.1
			}

			mmr := lambda*cand.Score - (1-lambda)*penalty
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
				bestPenalty = penalty
			}
		}

		chosen := remaining[bestIdx]
		selected = append(selected, chosen)
		penaltyTotal += bestPenalty
		seenDocs[chosen.Chunk.DocID] = true
		seenHeadings[chosen.Chunk.HeadingPath] = true
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected, penaltyTotal
}
