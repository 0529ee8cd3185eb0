package rerank

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"sort"

	"github.com/poiesic/searcheval/core"
)

// CrossEncoderReranker re-scores candidates by batching (query, document)
// pairs through a cross-encoder Scorer.
type CrossEncoderReranker struct {
	scorer  Scorer
	sigmoid bool
	name    string
	logger  *slog.Logger
}

// CrossEncoderOption configures a CrossEncoderReranker.
type CrossEncoderOption func(*CrossEncoderReranker)

// WithSigmoid maps raw cross-encoder scores through a sigmoid into [0, 1].
func WithSigmoid(enabled bool) CrossEncoderOption {
	return func(r *CrossEncoderReranker) {
		r.sigmoid = enabled
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) CrossEncoderOption {
	return func(r *CrossEncoderReranker) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewCrossEncoderReranker creates a reranker around the given scorer.
func NewCrossEncoderReranker(scorer Scorer, opts ...CrossEncoderOption) (*CrossEncoderReranker, error) {
	if scorer == nil {
		return nil, ErrScorerRequired
	}

	r := &CrossEncoderReranker{
		scorer: scorer,
		name:   "cross-encoder(" + scorer.Name() + ")",
		logger: slog.Default().With("component", "cross-encoder-reranker"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Name returns the reranker name, fixed at construction time.
func (r *CrossEncoderReranker) Name() string {
	return r.name
}

// Rerank re-scores the results and returns them sorted by descending
// cross-encoder score, truncated to topK (0 means return all). The
// pre-rerank score and originating method are preserved in result metadata.
// An empty input returns an empty list without touching the model, so a
// no-op rerank never pays for a model load.
func (r *CrossEncoderReranker) Rerank(ctx context.Context, query string, results []core.SearchResult, topK int) ([]core.SearchResult, error) {
	if len(results) == 0 {
		return []core.SearchResult{}, nil
	}

	passages := make([]string, len(results))
	for i, res := range results {
		passages[i] = res.Document.Content
	}

	scores, err := r.scorer.Score(ctx, query, passages)
	if err != nil {
		return nil, fmt.Errorf("cross-encoder scoring: %w", err)
	}
	if len(scores) != len(results) {
		return nil, fmt.Errorf("%w: got %d scores for %d passages", ErrScoreCountMismatch, len(scores), len(results))
	}

	reranked := make([]core.SearchResult, len(results))
	for i, res := range results {
		score := scores[i]
		if r.sigmoid {
			score = 1.0 / (1.0 + math.Exp(-score))
		}

		metadata := make(map[string]string, len(res.Metadata)+2)
		maps.Copy(metadata, res.Metadata)
		metadata["original_score"] = fmt.Sprintf("%.6f", res.Score)
		if method, ok := res.Metadata["method"]; ok {
			metadata["original_method"] = method
		}
		metadata["method"] = r.name

		reranked[i] = core.SearchResult{
			Document: res.Document,
			Score:    score,
			Metadata: metadata,
		}
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})

	if topK > 0 && topK < len(reranked) {
		reranked = reranked[:topK]
	}

	r.logger.Debug("reranked candidates", "query_length", len(query), "candidates", len(results), "returned", len(reranked))
	return reranked, nil
}
