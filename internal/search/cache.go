package search

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/retrievalcore/engine/internal/store"
)

// DefaultCacheCapacity is the Layer 1 exact-match and Layer 2 semantic
// cache capacity.
const DefaultCacheCapacity = 100

// DefaultSemanticThreshold is the cosine-similarity hit threshold for the
// Layer 2 semantic cache.
const DefaultSemanticThreshold = 0.95

// semanticCacheEntry pairs a cached query embedding with its result list.
type semanticCacheEntry struct {
	embedding []float32
	results   []*SearchResult
}

// QueryCache is the two-layer query cache: an exact canonical-form LRU
// (Layer 1) and a linearly-scanned nearest-neighbor cache over cached
// query embeddings (Layer 2). Both layers share a single mutex.
type QueryCache struct {
	mu sync.Mutex

	exact     *lru.Cache[string, []*SearchResult]
	semantic  []semanticCacheEntry
	capacity  int
	threshold float64
}

// NewQueryCache creates a query cache with the given capacity (applied to
// both layers) and semantic similarity threshold.
func NewQueryCache(capacity int, threshold float64) *QueryCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if threshold <= 0 {
		threshold = DefaultSemanticThreshold
	}
	exact, _ := lru.New[string, []*SearchResult](capacity)
	return &QueryCache{
		exact:     exact,
		capacity:  capacity,
		threshold: threshold,
	}
}

// canonicalize trims and lowercases a query for Layer 1 keying.
func canonicalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// GetExact looks up the Layer 1 exact-match cache.
func (c *QueryCache) GetExact(query string) ([]*SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exact.Get(canonicalize(query))
}

// GetSemantic scans Layer 2 for a cached entry whose query embedding has
// cosine similarity above the configured threshold. The first match
// found during the linear scan is returned.
func (c *QueryCache) GetSemantic(embedding []float32) ([]*SearchResult, bool) {
	if len(embedding) == 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.semantic {
		if store.CosineSimilarity(embedding, entry.embedding) > c.threshold {
			return entry.results, true
		}
	}
	return nil, false
}

// Put inserts a fused result into Layer 1 (keyed by canonical query) and,
// when a query embedding is available, into Layer 2 as well. Layer 2 is
// bounded by the same capacity: the oldest entry is evicted once full.
func (c *QueryCache) Put(query string, embedding []float32, results []*SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.exact.Add(canonicalize(query), results)

	if len(embedding) == 0 {
		return
	}
	if len(c.semantic) >= c.capacity {
		c.semantic = c.semantic[1:]
	}
	c.semantic = append(c.semantic, semanticCacheEntry{embedding: embedding, results: results})
}
