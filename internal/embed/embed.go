// Package embed defines the embedding-generation collaborator boundary.
// Embedding generation itself happens outside the retrieval core: the
// engine consumes already-computed vectors from whatever concrete
// Embedder the caller wires in.
package embed

import "context"

// Embedder turns a query string into the dense vector the engine needs
// for cache lookups and dense search. Concrete backends (local model
// servers, remote APIs) live outside this module's scope.
type Embedder interface {
	// Embed generates the embedding for a single piece of text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding dimension this embedder produces.
	Dimensions() int

	// ModelName returns the embedding-model signature stored alongside
	// chunks that were embedded by this backend.
	ModelName() string
}
