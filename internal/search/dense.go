package search

import (
	"context"
	"sort"
	"time"

	"github.com/retrievalcore/engine/internal/store"
)

// trustRecencyWindow is the 30-day divisor of trust_score's linear
// recency decay (1 - age/window); the 0.5 floor is reached at 15 days.
const trustRecencyWindow = 30 * 24 * time.Hour

// trustRecencyFloor is the minimum recency factor a chunk's trust_score
// can carry, regardless of age.
const trustRecencyFloor = 0.5

// recencyFactor computes recency = max(0.5, 1 - age/(30d)) for a chunk
// created at createdAt, evaluated at now.
func recencyFactor(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt)
	if age < 0 {
		age = 0
	}
	factor := 1 - float64(age)/float64(trustRecencyWindow)
	if factor < trustRecencyFloor {
		return trustRecencyFloor
	}
	return factor
}

// trustScore combines a chunk's boost_factor with its recency factor.
func trustScore(c *store.Chunk, now time.Time) float64 {
	return c.BoostFactor * recencyFactor(c.CreatedAt, now)
}

// denseSearch performs a brute-force full-scan cosine-similarity search.
// Workspaces are sized for in-memory traversal, so no approximate index
// is used. Every candidate's trust_score is populated from boost_factor
// times the recency factor.
func denseSearch(ctx context.Context, chunks []*store.Chunk, query []float32, k int) []denseCandidate {
	if len(chunks) == 0 {
		return nil
	}

	now := time.Now()
	candidates := make([]denseCandidate, 0, len(chunks))
	for _, c := range chunks {
		sim := store.CosineSimilarity(query, c.Embedding)
		candidates = append(candidates, denseCandidate{
			Chunk: c,
			Similarity: sim,
			TrustScore: trustScore(c, now),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})

	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}
