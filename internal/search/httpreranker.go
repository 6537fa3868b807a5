package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultRerankTimeout bounds a single batch-scoring request.
const DefaultRerankTimeout = 30 * time.Second

// HTTPRerankerConfig configures the chat-style scoring backend.
type HTTPRerankerConfig struct {
	// Endpoint is the backend's generate-completion URL base.
	Endpoint string
	// Model is the backend model identifier.
	Model string
	// Timeout bounds a single batch request.
	Timeout time.Duration
}

// HTTPReranker scores a batch of candidate documents against a query
// using a batch prompt sent to an external chat-style scoring backend:
// the candidates are listed with indices, and the backend is asked to
// return a JSON array of floats in the same order.
type HTTPReranker struct {
	client *http.Client
	cfg    HTTPRerankerConfig
}

var _ Reranker = (*HTTPReranker)(nil)

// NewHTTPReranker creates a reranker client against a generate-style
// scoring backend (e.g. a locally hosted chat model).
func NewHTTPReranker(cfg HTTPRerankerConfig) *HTTPReranker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRerankTimeout
	}
	return &HTTPReranker{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// buildBatchPrompt lists candidate texts with their batch indices and
// asks for a JSON array of N floats in 0..1.
func buildBatchPrompt(query string, documents []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Score how relevant each candidate is to the query on a scale from 0 to 1.\nQuery: %s\n\n", query)
	for i, doc := range documents {
		fmt.Fprintf(&b, "[%d] %s\n", i, doc)
	}
	fmt.Fprintf(&b, "\nRespond with ONLY a JSON array of %d floats between 0 and 1, in index order.", len(documents))
	return b.String()
}

// ScoreBatch sends the batch prompt and parses the returned JSON array
// of floats. Any transport, status, or parse failure is a backend
// failure: the caller falls back to the pre-rerank result.
func (h *HTTPReranker) ScoreBatch(ctx context.Context, query string, documents []string) ([]float64, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	reqBody, err := json.Marshal(generateRequest{
		Model:  h.cfg.Model,
		Prompt: buildBatchPrompt(query, documents),
		Stream: false,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.Endpoint+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank backend returned status %d", resp.StatusCode)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}

	scores, err := extractScoreArray(result.Response)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(documents) {
		return nil, fmt.Errorf("rerank backend returned %d scores for %d documents", len(scores), len(documents))
	}
	return scores, nil
}

// extractScoreArray pulls the first JSON array of floats out of a
// chat-style completion, tolerating surrounding prose.
func extractScoreArray(text string) ([]float64, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array found in rerank response")
	}

	var scores []float64
	if err := json.Unmarshal([]byte(text[start:end+1]), &scores); err != nil {
		return nil, fmt.Errorf("malformed rerank score array: %w", err)
	}
	return scores, nil
}
