// Package searcher is the public façade over the retrieval engine: it
// wires a persistent store, an embedding collaborator, and the
// configuration layer into a ready-to-use internal/search.Engine.
package searcher

import (
	"context"
	"fmt"

	"github.com/retrievalcore/engine/internal/config"
	"github.com/retrievalcore/engine/internal/embed"
	"github.com/retrievalcore/engine/internal/search"
	"github.com/retrievalcore/engine/internal/store"
)

// Searcher is a ready-to-use retrieval engine bound to one workspace
// database.
type Searcher struct {
	engine *search.Engine
	store  store.MetadataStore
}

// Open opens the workspace database at cfg.Store.Path and builds a
// Searcher from cfg's search/cache/mmr/exploration/rerank sections.
// embedder may be nil, in which case dense search and the semantic
// cache layer are skipped and every query falls back to sparse-only
// retrieval.
func Open(cfg *config.Config, embedder embed.Embedder) (*Searcher, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open workspace store: %w", err)
	}

	engine, err := newEngine(cfg, st, embedder)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &Searcher{engine: engine, store: st}, nil
}

// OpenWithStore builds a Searcher over an already-open store, useful for
// tests that share a single in-memory or temp-file database.
func OpenWithStore(cfg *config.Config, st store.MetadataStore, embedder embed.Embedder) (*Searcher, error) {
	engine, err := newEngine(cfg, st, embedder)
	if err != nil {
		return nil, err
	}
	return &Searcher{engine: engine, store: st}, nil
}

func newEngine(cfg *config.Config, st store.MetadataStore, embedder embed.Embedder) (*search.Engine, error) {
	engineCfg := search.EngineConfig{
		RRFConstant:        cfg.Search.RRFConstant,
		DefaultLimit:       cfg.Search.DefaultLimit,
		CriticalLatencyMS:  cfg.Search.CriticalLatencyMS,
		DegradedLatencyMS:  cfg.Search.DegradedLatencyMS,
		CacheCapacity:      cfg.Cache.ExactCapacity,
		SemanticThreshold:  cfg.Cache.SemanticThreshold,
		MMREnabled:         cfg.MMR.Enabled,
		ExploreEnabled:     cfg.Explore.Enabled,
		StabilityThreshold: cfg.Explore.StabilityThreshold,
		TrustCeiling:       cfg.Explore.TrustCeiling,
		SimilarityFloor:    cfg.Explore.SimilarityFloor,
		RerankEnabled:      cfg.Rerank.Enabled,
		RerankModel:        cfg.Rerank.Model,
		RerankCandidates:   cfg.Rerank.CandidateCount,
	}

	var opts []search.EngineOption
	if cfg.Rerank.Enabled {
		if cfg.Rerank.Endpoint == "" {
			return nil, fmt.Errorf("rerank enabled but no endpoint configured")
		}
		backend := search.NewHTTPReranker(search.HTTPRerankerConfig{
			Endpoint: cfg.Rerank.Endpoint,
			Model:    cfg.Rerank.Model,
			Timeout:  cfg.Rerank.Timeout,
		})
		opts = append(opts, search.WithReranker(backend))
	}

	engine, err := search.NewEngine(st, embedder, engineCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("build search engine: %w", err)
	}

	if err := engine.LoadRerankStats(context.Background()); err != nil {
		return nil, fmt.Errorf("load reranker calibration: %w", err)
	}

	return engine, nil
}

// Search runs a query through the full retrieval pipeline.
func (s *Searcher) Search(ctx context.Context, query string, opts search.SearchOptions) ([]*search.SearchResult, error) {
	return s.engine.Search(ctx, query, opts)
}

// RecordInteraction is the feedback entry point: it boosts the clicked
// chunk's trust score unless the interaction was on an exploration
// probe result.
func (s *Searcher) RecordInteraction(ctx context.Context, chunkID int64, query string, isExploration bool) error {
	return s.engine.RecordInteraction(ctx, chunkID, query, isExploration)
}

// Store exposes the underlying persistent store for callers that need
// direct access (ingestion, stats, maintenance).
func (s *Searcher) Store() store.MetadataStore {
	return s.store
}

// Close releases the engine's worker handle and the underlying store.
func (s *Searcher) Close() error {
	if err := s.engine.Close(); err != nil {
		return err
	}
	return s.store.Close()
}
