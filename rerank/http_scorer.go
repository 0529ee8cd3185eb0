package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPScorer scores (query, passage) pairs against a cross-encoder model
// served over an OpenAI-style rerank HTTP API (Jina/Cohere compatible).
//
// Construction is two-phase: NewHTTPScorer is cheap and performs no I/O;
// Ready probes the endpoint and must be called once before Score. This keeps
// model-server startup latency out of the first search and makes the scorer
// trivial to substitute in tests.
type HTTPScorer struct {
	baseURL    string
	model      string
	httpClient *http.Client
	ready      bool
	logger     *slog.Logger
}

// HTTPScorerOption configures an HTTPScorer.
type HTTPScorerOption func(*HTTPScorer)

// WithModel sets the model identifier sent with every request.
// Default is "rerank-v1".
func WithModel(model string) HTTPScorerOption {
	return func(s *HTTPScorer) {
		if model != "" {
			s.model = model
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) HTTPScorerOption {
	return func(s *HTTPScorer) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// NewHTTPScorer creates a scorer for the rerank endpoint at baseURL.
func NewHTTPScorer(baseURL string, opts ...HTTPScorerOption) (*HTTPScorer, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	s := &HTTPScorer{
		baseURL: baseURL,
		model:   "rerank-v1",
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		logger: slog.Default().With("component", "http-scorer"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Name returns the backing model identifier.
func (s *HTTPScorer) Name() string {
	return s.model
}

// Ready probes the rerank endpoint with a trivial request so the model
// server can load weights before real traffic arrives.
func (s *HTTPScorer) Ready(ctx context.Context) error {
	_, err := s.post(ctx, "warmup", []string{"warmup"})
	if err != nil {
		return fmt.Errorf("rerank endpoint not ready: %w", err)
	}
	s.ready = true
	return nil
}

// Score returns one relevance score per passage, in input order.
func (s *HTTPScorer) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if !s.ready {
		return nil, ErrNotReady
	}
	if len(passages) == 0 {
		return []float64{}, nil
	}

	results, err := s.post(ctx, query, passages)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(passages))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(scores) {
			return nil, fmt.Errorf("rerank response index %d out of range", r.Index)
		}
		scores[r.Index] = r.RelevanceScore
	}
	return scores, nil
}

type rerankRequest struct {
	Model           string   `json:"model"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n"`
	ReturnDocuments bool     `json:"return_documents"`
}

type rerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type rerankResponse struct {
	Results []rerankResult `json:"results"`
}

func (s *HTTPScorer) post(ctx context.Context, query string, passages []string) ([]rerankResult, error) {
	payload := rerankRequest{
		Model:     s.model,
		Query:     query,
		Documents: passages,
		// All passages back: the caller owns truncation.
		TopN:            len(passages),
		ReturnDocuments: false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("rerank request failed", "status", resp.StatusCode)
		return nil, fmt.Errorf("rerank request failed: status %d: %s", resp.StatusCode, truncateBody(data))
	}

	var parsed rerankResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decoding rerank response: %w", err)
	}
	return parsed.Results, nil
}

func truncateBody(data []byte) string {
	const limit = 256
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}
