package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"sync"

	internalerrors "github.com/retrievalcore/engine/internal/errors"
	"github.com/retrievalcore/engine/internal/store"
)

// rerankEMA is the exponential-moving-average rate for the rolling
// mean/std update.
const rerankEMA = 0.15

// rerankOutlierZ is the unclamped z-score magnitude beyond which a
// candidate is rejected as an outlier.
const rerankOutlierZ = 5.0

// rerankClampZ bounds the z-score fed into the calibration sigmoid.
const rerankClampZ = 3.0

// rerankDriftThreshold is how far a batch mean may deviate from the
// rolling mean, once warmed up, before statistics are reset.
const rerankDriftThreshold = 0.4

// rerankDriftWarmupSamples is the minimum sample count before drift
// detection activates.
const rerankDriftWarmupSamples = 5

// rerankFrozenVariance is the batch-variance floor below which a batch is
// considered "frozen" (uniform scores) and does not update statistics.
const rerankFrozenVariance = 0.001

// rerankMinStd is the floor applied to a batch's standard deviation
// before folding it into the EMA, so a momentarily-uniform batch can't
// collapse the rolling std to zero.
const rerankMinStd = 0.01

// rerankTruncateChars is how much of each candidate's text goes into the
// batch scoring prompt.
const rerankTruncateChars = 500

// CalibrationStats is the persisted rolling mean/std for one reranker
// model, keyed in workspace_metadata under RerankerMeanKey/RerankerStdKey.
type CalibrationStats struct {
	Mean float64
	Std  float64
}

// RerankAnomaly is a non-fatal observability signal surfaced by the
// calibration state machine.
type RerankAnomaly string

const (
	RerankAnomalyNone        RerankAnomaly = ""
	RerankAnomalyFrozenBatch RerankAnomaly = "frozen_batch"
	RerankAnomalyDriftReset  RerankAnomaly = "drift_reset"
)

// Signal converts the anomaly into its observability error. Never nil for
// a non-empty anomaly; never surfaced as a user-facing failure.
func (a RerankAnomaly) Signal() *internalerrors.RetrievalError {
	code := internalerrors.ErrCodeRerankFrozenBatch
	if a == RerankAnomalyDriftReset {
		code = internalerrors.ErrCodeRerankDriftReset
	}
	return internalerrors.Anomaly(code, "rerank calibration anomaly: "+string(a))
}

// RerankEngine wraps a cross-encoder backend with z-score calibration,
// outlier rejection, drift detection, and persisted rolling statistics.
// Its state is instance-scoped: each workspace's engine owns one,
// not a process-wide singleton.
type RerankEngine struct {
	backend        Reranker
	circuit        *internalerrors.CircuitBreaker
	candidateCount int

	mu      sync.Mutex
	stats   CalibrationStats
	samples int
	stable  bool // true once persisted stats were loaded; activates drift detection sooner
}

// NewRerankEngine wraps backend with the calibration state machine.
// candidateCount bounds how many fused candidates are sent per batch.
func NewRerankEngine(backend Reranker, candidateCount int) *RerankEngine {
	if candidateCount <= 0 {
		candidateCount = 10
	}
	return &RerankEngine{
		backend:        backend,
		circuit:        internalerrors.NewCircuitBreaker("reranker"),
		candidateCount: candidateCount,
		stats:          CalibrationStats{Mean: 0.5, Std: 0.2},
	}
}

// LoadPersisted restores rolling statistics from workspace_metadata under
// model's reserved keys and marks the client "stable" so drift detection
// is active from the first batch.
func (r *RerankEngine) LoadPersisted(ctx context.Context, st store.MetadataStore, model string) error {
	meanStr, ok, err := st.GetMetadata(ctx, store.RerankerMeanKey(model))
	if err != nil || !ok {
		return err
	}
	stdStr, ok, err := st.GetMetadata(ctx, store.RerankerStdKey(model))
	if err != nil || !ok {
		return err
	}

	mean, err := strconv.ParseFloat(meanStr, 64)
	if err != nil {
		return nil
	}
	std, err := strconv.ParseFloat(stdStr, 64)
	if err != nil {
		return nil
	}

	r.mu.Lock()
	r.stats = CalibrationStats{Mean: mean, Std: std}
	r.stable = true
	r.samples = rerankDriftWarmupSamples
	r.mu.Unlock()
	return nil
}

// SavePersisted writes the current rolling statistics under model's
// reserved workspace_metadata keys.
func (r *RerankEngine) SavePersisted(ctx context.Context, st store.MetadataStore, model string) error {
	r.mu.Lock()
	stats := r.stats
	r.mu.Unlock()

	if err := st.SetMetadata(ctx, store.RerankerMeanKey(model), strconv.FormatFloat(stats.Mean, 'f', -1, 64)); err != nil {
		return err
	}
	return st.SetMetadata(ctx, store.RerankerStdKey(model), strconv.FormatFloat(stats.Std, 'f', -1, 64))
}

// Rerank batch-scores up to candidateCount fused candidates against
// query, calibrates the raw scores, rejects outliers, and returns the
// reordered list with RerankRank preserving each survivor's pre-rerank
// position. Any backend failure — open circuit, transport error,
// mismatched response length — returns candidates unchanged and leaves
// rolling statistics untouched.
func (r *RerankEngine) Rerank(ctx context.Context, query string, candidates []*fusedCandidate) ([]*fusedCandidate, RerankAnomaly) {
	if len(candidates) == 0 || !r.circuit.Allow() {
		return candidates, RerankAnomalyNone
	}

	n := len(candidates)
	if n > r.candidateCount {
		n = r.candidateCount
	}
	batch := candidates[:n]
	tail := candidates[n:]

	texts := make([]string, n)
	for i, c := range batch {
		texts[i] = truncateText(c.Chunk.Text, rerankTruncateChars)
	}

	rawScores, err := r.backend.ScoreBatch(ctx, query, texts)
	if err != nil {
		berr := internalerrors.BackendFailure(internalerrors.ErrCodeRerankBackendUnavailable, "batch scoring failed", err)
		slog.Warn("rerank_backend_failed", slog.String("code", berr.Code), slog.String("error", berr.Error()))
		r.circuit.RecordFailure()
		return candidates, RerankAnomalyNone
	}
	if len(rawScores) != n {
		berr := internalerrors.BackendFailure(internalerrors.ErrCodeRerankMalformedResponse,
			fmt.Sprintf("backend returned %d scores for %d candidates", len(rawScores), n), nil)
		slog.Warn("rerank_backend_failed", slog.String("code", berr.Code), slog.String("error", berr.Error()))
		r.circuit.RecordFailure()
		return candidates, RerankAnomalyNone
	}
	r.circuit.RecordSuccess()

	anomaly := r.updateStats(rawScores)

	r.mu.Lock()
	mean, std := r.stats.Mean, r.stats.Std
	r.mu.Unlock()
	if std == 0 {
		std = rerankMinStd
	}

	type scored struct {
		cand *fusedCandidate
		rank int
		norm float64
	}
	survivors := make([]scored, 0, n)
	for i, x := range rawScores {
		z := (x - mean) / std
		if math.Abs(z) > rerankOutlierZ {
			continue
		}
		clamped := clamp(z, -rerankClampZ, rerankClampZ)
		survivors = append(survivors, scored{cand: batch[i], rank: i + 1, norm: sigmoid(clamped)})
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].norm > survivors[j].norm
	})

	result := make([]*fusedCandidate, 0, len(survivors)+len(tail))
	for _, s := range survivors {
		s.cand.Score = s.norm
		s.cand.RerankRank = s.rank
		result = append(result, s.cand)
	}
	result = append(result, tail...)
	return result, anomaly
}

// updateStats folds a batch of raw scores into the rolling mean/std,
// handling initialization, drift reset, and frozen-batch detection, and
// returns any anomaly signal raised.
func (r *RerankEngine) updateStats(rawScores []float64) RerankAnomaly {
	batchMean, batchStd, consistency := batchStatistics(rawScores)

	r.mu.Lock()
	defer r.mu.Unlock()

	if consistency < rerankFrozenVariance {
		return RerankAnomalyFrozenBatch
	}

	if r.samples == 0 && !r.stable {
		r.stats = CalibrationStats{Mean: batchMean, Std: math.Max(rerankMinStd, batchStd)}
		r.samples += len(rawScores)
		return RerankAnomalyNone
	}

	if r.samples >= rerankDriftWarmupSamples && math.Abs(batchMean-r.stats.Mean) > rerankDriftThreshold {
		r.stats = CalibrationStats{Mean: batchMean, Std: math.Max(rerankMinStd, batchStd)}
		r.samples = 0
		r.stable = false
		return RerankAnomalyDriftReset
	}

	r.stats.Mean = (1-rerankEMA)*r.stats.Mean + rerankEMA*batchMean
	r.stats.Std = (1-rerankEMA)*r.stats.Std + rerankEMA*math.Max(rerankMinStd, batchStd)
	r.samples += len(rawScores)
	return RerankAnomalyNone
}

// batchStatistics returns the batch mean, standard deviation, and the
// consistency-check statistic Σ(s-0.5)² used to detect a frozen batch.
func batchStatistics(scores []float64) (mean, std, consistency float64) {
	n := float64(len(scores))
	if n == 0 {
		return 0, 0, 0
	}
	for _, s := range scores {
		mean += s
	}
	mean /= n

	var variance float64
	for _, s := range scores {
		d := s - mean
		variance += d * d
		diffFromHalf := s - 0.5
		consistency += diffFromHalf * diffFromHalf
	}
	variance /= n
	return mean, math.Sqrt(variance), consistency
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
