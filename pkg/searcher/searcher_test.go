package searcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrievalcore/engine/internal/config"
	"github.com/retrievalcore/engine/internal/search"
	"github.com/retrievalcore/engine/internal/store"
)

func TestOpenWithStore_SearchAndRecordInteraction(t *testing.T) {
	st, err := store.Open("")
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	id, err := st.InsertChunk(context.Background(), &store.Chunk{SourceFile: "a.md", Text: "cache content here"})
	require.NoError(t, err)

	cfg := config.NewConfig()
	s, err := OpenWithStore(cfg, st, nil)
	require.NoError(t, err)

	results, err := s.Search(context.Background(), "cache", search.SearchOptions{Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	require.NoError(t, s.RecordInteraction(context.Background(), id, "cache", false))
	assert.Same(t, st, s.Store())
}

func TestOpenWithStore_RerankEnabledWithoutEndpointErrors(t *testing.T) {
	st, err := store.Open("")
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	cfg := config.NewConfig()
	cfg.Rerank.Enabled = true

	_, err = OpenWithStore(cfg, st, nil)
	assert.Error(t, err)
}
