package rerank

import (
	"context"

	"github.com/poiesic/searcheval/core"
)

// Reranker re-scores a candidate result list against a query.
type Reranker interface {
	// Name identifies the reranker for display and result provenance.
	Name() string

	// Rerank returns the candidates re-scored and sorted by descending
	// relevance, truncated to topK. A topK of 0 returns all candidates.
	Rerank(ctx context.Context, query string, results []core.SearchResult, topK int) ([]core.SearchResult, error)
}

// Scorer is the cross-encoder model runtime consumed by the reranker.
// Implementations jointly encode (query, passage) pairs and return one raw
// relevance score per passage, in input order.
type Scorer interface {
	// Name identifies the backing model.
	Name() string

	// Score returns a relevance score per passage. The returned slice has
	// exactly one entry per input passage.
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}
