package search

import (
	"context"

	"github.com/retrievalcore/engine/internal/store"
)

// sparseScorePlaceholder is the fixed, not-meaningful-outside-fusion score
// every sparse hit carries. Only its rank participates in RRF.
const sparseScorePlaceholder = 0.5

// sparseSearch runs the inverted-index keyword match through the store
// and returns up to limit chunks. The store itself degrades malformed
// FTS5 queries to an empty result (storage-recoverable), so this
// layer adds no additional error handling.
func sparseSearch(ctx context.Context, st store.MetadataStore, query string, limit int) []sparseCandidate {
	chunks, err := st.KeywordQuery(ctx, query, limit)
	if err != nil || len(chunks) == 0 {
		return nil
	}

	candidates := make([]sparseCandidate, len(chunks))
	for i, c := range chunks {
		candidates[i] = sparseCandidate{Chunk: c, Score: sparseScorePlaceholder}
	}
	return candidates
}
