package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/retrievalcore/engine/internal/embed"
	"github.com/retrievalcore/engine/internal/store"
)

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// latencyEMASeed and latencyEMAAlpha are the escape-hatch
// parameters: a per-process EWMA of total search latency, seeded at
// 100ms, updated with alpha=0.2.
const (
	latencyEMASeed  = 100.0 // milliseconds
	latencyEMAAlpha = 0.2
)

// EngineConfig holds the tunables the engine needs, translated from the
// on-disk configuration by the caller (cmd/pkg layer) so this package
// stays decoupled from config file formats.
type EngineConfig struct {
	RRFConstant       int
	DefaultLimit      int
	CriticalLatencyMS float64
	DegradedLatencyMS float64

	CacheCapacity     int
	SemanticThreshold float64

	MMREnabled bool

	ExploreEnabled     bool
	StabilityThreshold float64
	TrustCeiling       float64
	SimilarityFloor    float64

	RerankEnabled    bool
	RerankModel      string
	RerankCandidates int
}

// DefaultEngineConfig returns the documented defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		RRFConstant:        RRFConstant,
		DefaultLimit:       10,
		CriticalLatencyMS:  4000,
		DegradedLatencyMS:  1500,
		CacheCapacity:      DefaultCacheCapacity,
		SemanticThreshold:  DefaultSemanticThreshold,
		StabilityThreshold: DefaultStabilityThreshold,
		TrustCeiling:       DefaultTrustCeiling,
		SimilarityFloor:    DefaultSimilarityFloor,
		RerankCandidates:   10,
	}
}

// Engine orchestrates the full retrieval pipeline: cache lookup, intent
// classification, parallel dense+sparse retrieval, fusion, stability
// biasing, adaptive MMR, exploration, and optional reranking.
type Engine struct {
	primary    store.MetadataStore
	worker     store.MetadataStore // cloned read handle used by search workers, may equal primary
	embedder   embed.Embedder
	classifier Classifier

	cache       *QueryCache
	diversifier *Diversifier
	rerank      *RerankEngine

	cfg EngineConfig

	mu         sync.Mutex
	latencyEMA float64
}

// EngineOption configures optional Engine behavior.
type EngineOption func(*Engine)

// WithClassifier overrides the default rule-based Intent Classifier.
func WithClassifier(c Classifier) EngineOption {
	return func(e *Engine) { e.classifier = c }
}

// WithReranker installs the backend for the optional cross-encoder rerank
// stage; the stage runs only when EngineConfig.RerankEnabled is also set.
func WithReranker(backend Reranker) EngineOption {
	return func(e *Engine) {
		e.rerank = NewRerankEngine(backend, e.cfg.RerankCandidates)
	}
}

// cloneableStore is implemented by stores that can open a dedicated
// read-only handle for worker-thread use.
type cloneableStore interface {
	CloneWorker() (*store.SQLiteStore, error)
}

// NewEngine builds the retrieval engine. primary is the store handle
// used for all writes (insert, boost, log); a read-only clone is opened
// for the concurrent dense/sparse workers when the store supports it.
func NewEngine(primary store.MetadataStore, embedder embed.Embedder, cfg EngineConfig, opts ...EngineOption) (*Engine, error) {
	if primary == nil {
		return nil, fmt.Errorf("%w: store", ErrNilDependency)
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.RRFConstant <= 0 {
		cfg.RRFConstant = RRFConstant
	}

	worker := primary
	if cs, ok := primary.(cloneableStore); ok {
		if cloned, err := cs.CloneWorker(); err == nil {
			worker = cloned
		}
	}

	e := &Engine{
		primary:     primary,
		worker:      worker,
		embedder:    embedder,
		classifier:  NewClassifier(),
		cache:       NewQueryCache(cfg.CacheCapacity, cfg.SemanticThreshold),
		diversifier: NewDiversifier(),
		cfg:         cfg,
		latencyEMA:  latencyEMASeed,
	}

	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// LoadRerankStats restores the reranker's persisted calibration stats, if
// a rerank backend is configured. Callers invoke this once after
// NewEngine, since NewEngine itself takes no context.
func (e *Engine) LoadRerankStats(ctx context.Context) error {
	if e.rerank == nil || e.cfg.RerankModel == "" {
		return nil
	}
	return e.rerank.LoadPersisted(ctx, e.primary, e.cfg.RerankModel)
}

// workerPoolSize is the shared thread pool size for parallel dense+sparse
// retrieval: max(2, cores/2).
func workerPoolSize() int {
	n := runtime.NumCPU() / 2
	if n < 2 {
		return 2
	}
	return n
}

// Close releases the worker read handle (if distinct from primary). The
// primary handle's lifecycle is owned by the caller.
func (e *Engine) Close() error {
	if e.worker != nil && e.worker != e.primary {
		return e.worker.Close()
	}
	return nil
}

func (e *Engine) currentLatencyEMA() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.latencyEMA
}

func (e *Engine) recordLatency(ms float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.latencyEMA = (1-latencyEMAAlpha)*e.latencyEMA + latencyEMAAlpha*ms
}

// Search executes the full retrieval pipeline for query and returns up
// to opts.Limit ranked, enriched results.
func (e *Engine) Search(ctx context.Context, query string, opts SearchOptions) ([]*SearchResult, error) {
	if opts.Limit <= 0 {
		opts.Limit = e.cfg.DefaultLimit
	}

	overallStart := time.Now()

	if cached, ok := e.cache.GetExact(query); ok {
		return cached, nil
	}

	var queryEmbedding []float32
	var embedLatency time.Duration
	if e.embedder != nil {
		embedStart := time.Now()
		vec, err := e.embedder.Embed(ctx, query)
		embedLatency = time.Since(embedStart)
		if err == nil {
			if dimErr := e.primary.CheckEmbeddingDimension(ctx, len(vec)); dimErr != nil {
				return nil, dimErr
			}
			queryEmbedding = vec
			if cached, ok := e.cache.GetSemantic(queryEmbedding); ok {
				return cached, nil
			}
		}
	}

	intent := e.classifier.Classify(query)
	weights := weightsForIntent(intent)
	retrievalLimit := opts.Limit * weights.RetrievalMultiple

	ema := e.currentLatencyEMA()
	bypassDense := ema > e.cfg.CriticalLatencyMS && intent != IntentSummary
	if !bypassDense && ema > e.cfg.DegradedLatencyMS {
		retrievalLimit = opts.Limit * 3
	}

	searchStart := time.Now()
	dense, sparse, err := e.parallelRetrieve(ctx, query, queryEmbedding, retrievalLimit, bypassDense)
	if err != nil {
		return nil, err
	}
	searchLatency := time.Since(searchStart)

	fusionStart := time.Now()
	var fused []*fusedCandidate
	if bypassDense {
		fused = fuseSparseOnly(sparse)
	} else {
		fused = fuse(dense, sparse, intent, weights, e.cfg.RRFConstant)
	}

	baselineDenseRank := 0
	if len(fused) > 0 {
		baselineDenseRank = fused[0].SemanticRank
	}

	stability := computeStability(ctx, e.worker, query)
	applyStabilityBias(fused, stability, intent)

	var mmrPenalty float64
	if e.cfg.MMREnabled && len(fused) > 1 {
		fused, mmrPenalty = e.diversifier.Diversify(query, intent, fused, opts.Limit)
	} else if len(fused) > opts.Limit {
		fused = fused[:opts.Limit]
	}

	isExploration := false
	if explorationEligible(e.cfg.ExploreEnabled, stability, intent, len(fused), e.cfg.StabilityThreshold) {
		probe := selectExplorationProbe(dense, opts.Limit, e.cfg.TrustCeiling, e.cfg.SimilarityFloor)
		if probe != nil {
			fused = insertExplorationProbe(fused, probe)
			isExploration = true
			if len(fused) > opts.Limit {
				fused = fused[:opts.Limit]
			}
		}
	}
	fusionLatency := time.Since(fusionStart)

	var rerankLatency time.Duration
	if e.rerank != nil && e.cfg.RerankEnabled && len(fused) > 0 {
		rerankStart := time.Now()
		reranked, anomaly := e.rerank.Rerank(ctx, query, fused)
		fused = reranked
		if anomaly != RerankAnomalyNone {
			sig := anomaly.Signal()
			slog.Info("rerank_anomaly", slog.String("code", sig.Code), slog.String("anomaly", string(anomaly)), slog.String("query", query))
		}
		rerankLatency = time.Since(rerankStart)
		if e.cfg.RerankModel != "" {
			if err := e.rerank.SavePersisted(ctx, e.primary, e.cfg.RerankModel); err != nil {
				slog.Warn("rerank_stats_persist_failed", slog.String("error", err.Error()))
			}
		}
	}

	results := toSearchResults(fused, stability)

	e.cache.Put(query, queryEmbedding, results)

	totalLatency := time.Since(overallStart)
	e.recordLatency(float64(totalLatency.Milliseconds()))

	e.logRetrieval(ctx, query, results, searchLatency, embedLatency, fusionLatency, rerankLatency, baselineDenseRank, mmrPenalty, isExploration, stability)

	return results, nil
}

// parallelRetrieve runs dense and sparse search concurrently on the
// shared worker pool. Dense is skipped entirely when bypassDense is
// set by the critical-latency escape hatch.
func (e *Engine) parallelRetrieve(ctx context.Context, query string, queryEmbedding []float32, limit int, bypassDense bool) ([]denseCandidate, []sparseCandidate, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerPoolSize())

	var dense []denseCandidate
	var sparse []sparseCandidate

	if !bypassDense && len(queryEmbedding) > 0 {
		g.Go(func() error {
			chunks, err := e.worker.ScanAllChunks(gctx)
			if err != nil {
				return err
			}
			dense = denseSearch(gctx, chunks, queryEmbedding, limit)
			return nil
		})
	}

	g.Go(func() error {
		sparse = sparseSearch(gctx, e.worker, query, limit)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return dense, sparse, nil
}

// fuseSparseOnly builds a fused candidate list directly from sparse
// results when the critical-latency escape hatch bypasses dense search;
// candidates keep the 0.5 placeholder score.
func fuseSparseOnly(sparse []sparseCandidate) []*fusedCandidate {
	fused := make([]*fusedCandidate, len(sparse))
	for i, s := range sparse {
		fused[i] = &fusedCandidate{
			Chunk:       s.Chunk,
			Score:       s.Score,
			KeywordRank: i + 1,
		}
	}
	return fused
}

// toSearchResults converts fused candidates into the caller-facing
// result shape, assigning 1-indexed final ranks.
func toSearchResults(fused []*fusedCandidate, stability float64) []*SearchResult {
	results := make([]*SearchResult, len(fused))
	for i, fc := range fused {
		results[i] = &SearchResult{
			ChunkID:       fc.Chunk.ID,
			Text:          fc.Chunk.Text,
			SourceFile:    fc.Chunk.SourceFile,
			DocID:         fc.Chunk.DocID,
			Page:          fc.Chunk.Page,
			HeadingPath:   fc.Chunk.HeadingPath,
			HeadingLevel:  fc.Chunk.HeadingLevel,
			ChunkType:     fc.Chunk.ChunkType,
			Score:         fc.Score,
			SemanticRank:  fc.SemanticRank,
			KeywordRank:   fc.KeywordRank,
			RerankRank:    fc.RerankRank,
			TrustScore:    fc.TrustScore,
			IsExploration: fc.IsExploration,
			Stability:     stability,
		}
	}
	return results
}

// logRetrieval appends one retrieval-log row. Logging failures
// are storage-recoverable: they are observed, never propagated to the
// caller.
func (e *Engine) logRetrieval(
	ctx context.Context,
	query string,
	results []*SearchResult,
	searchLatency, embedLatency, fusionLatency, rerankLatency time.Duration,
	baselineDenseRank int,
	mmrPenalty float64,
	isExploration bool,
	stability float64,
) {
	if len(results) == 0 {
		return
	}

	top := results[0]
	finalRank := 1
	rankDelta := finalRank - baselineDenseRank
	if baselineDenseRank == 0 {
		rankDelta = 0
	}

	entry := &store.RetrievalLogEntry{
		Query:            query,
		SemanticRank:     top.SemanticRank,
		KeywordRank:      top.KeywordRank,
		FinalRank:        finalRank,
		LatencyEmbedding: float64(embedLatency.Milliseconds()),
		LatencySearch:    float64(searchLatency.Milliseconds()),
		LatencyFusion:    float64(fusionLatency.Milliseconds()),
		LatencyRerank:    float64(rerankLatency.Milliseconds()),
		TopScore:         top.Score,
		MMRPenaltyTotal:  mmrPenalty,
		IsExploration:    isExploration,
		RankDelta:        rankDelta,
		Stability:        stability,
	}

	if _, err := e.primary.AppendRetrievalLog(ctx, entry); err != nil {
		slog.Warn("retrieval_log_append_failed", slog.String("error", err.Error()), slog.String("query", query))
	}
}

// RecordInteraction is the feedback entry point: it appends a log
// row for the interaction and, unless the clicked entry was an
// exploration probe, increments the chunk's boost_factor by 0.1. The
// exploration quarantine is enforced here.
func (e *Engine) RecordInteraction(ctx context.Context, chunkID int64, query string, isExploration bool) error {
	if _, err := e.primary.AppendRetrievalLog(ctx, &store.RetrievalLogEntry{
		Query:         query,
		IsExploration: isExploration,
	}); err != nil {
		return err
	}

	if isExploration {
		return nil
	}
	return e.primary.BoostChunk(ctx, chunkID, 0.1)
}
