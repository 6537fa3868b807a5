package search

// DefaultStabilityThreshold, DefaultTrustCeiling, and DefaultSimilarityFloor
// are the exploration probe's eligibility and selection thresholds.
const (
	DefaultStabilityThreshold = 0.6
	DefaultTrustCeiling       = 1.0
	DefaultSimilarityFloor    = 0.65
)

// explorationEligible reports whether the exploration probe may run for
// this query: exploration on, results present, stability high enough,
// and not a high-trust intent.
func explorationEligible(enabled bool, stability float64, intent Intent, resultCount int, stabilityThreshold float64) bool {
	if !enabled || resultCount == 0 {
		return false
	}
	if stability < stabilityThreshold {
		return false
	}
	return intent != IntentDefinition && intent != IntentProcedure
}

// selectExplorationProbe scans the dense candidate list beyond position
// limit for the first chunk that has never been clicked (trust_score at
// or below the ceiling — a chunk whose boost_factor has never been
// incremented above its 1.0 default, times a recency factor that cannot
// exceed 1) and whose raw cosine similarity clears the floor.
func selectExplorationProbe(dense []denseCandidate, limit int, trustCeiling, similarityFloor float64) *denseCandidate {
	for i := limit; i < len(dense); i++ {
		d := dense[i]
		if d.TrustScore <= trustCeiling && d.Similarity > similarityFloor {
			return &dense[i]
		}
	}
	return nil
}

// insertExplorationProbe splices the exploration candidate into rank 2
// (1-indexed), displacing — not replacing — everything from there on,
// and assigns it a score just below the current top score.
func insertExplorationProbe(fused []*fusedCandidate, probe *denseCandidate) []*fusedCandidate {
	if len(fused) == 0 || probe == nil {
		return fused
	}

	probeCand := &fusedCandidate{
		Chunk:         probe.Chunk,
		Score:         fused[0].Score * 0.95,
		TrustScore:    probe.TrustScore,
		RawCosine:     probe.Similarity,
		IsExploration: true,
	}

	result := make([]*fusedCandidate, 0, len(fused)+1)
	result = append(result, fused[0], probeCand)
	result = append(result, fused[1:]...)
	return result
}
