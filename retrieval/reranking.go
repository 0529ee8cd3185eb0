package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/searcheval/core"
	"github.com/poiesic/searcheval/rerank"
)

// DefaultRetrieveK is the default first-stage candidate count fed to the
// reranker.
const DefaultRetrieveK = 50

// RerankingRetriever is a two-stage pipeline: fetch a generous candidate
// set from a wrapped base retriever, then let a cross-encoder reranker pick
// the final top-k.
type RerankingRetriever struct {
	base      Retriever
	reranker  rerank.Reranker
	retrieveK int
	// name is fixed at construction so identifiers stay consistent across
	// calls even if a wrapped component changes its own name.
	name   string
	logger *slog.Logger
}

// RerankingOption configures a RerankingRetriever.
type RerankingOption func(*RerankingRetriever)

// WithRetrieveK sets the first-stage candidate count.
func WithRetrieveK(k int) RerankingOption {
	return func(r *RerankingRetriever) {
		if k > 0 {
			r.retrieveK = k
		}
	}
}

// WithRerankingLogger sets a custom logger.
// Default is slog.Default().
func WithRerankingLogger(logger *slog.Logger) RerankingOption {
	return func(r *RerankingRetriever) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewRerankingRetriever wraps base with a rerank stage.
func NewRerankingRetriever(base Retriever, reranker rerank.Reranker, opts ...RerankingOption) (*RerankingRetriever, error) {
	if base == nil {
		return nil, ErrBaseRetrieverRequired
	}
	if reranker == nil {
		return nil, ErrRerankerRequired
	}

	r := &RerankingRetriever{
		base:      base,
		reranker:  reranker,
		retrieveK: DefaultRetrieveK,
		name:      base.Name() + "+" + reranker.Name(),
		logger:    slog.Default().With("component", "reranking-retriever"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Name returns "{base}+{reranker}", fixed at construction time.
func (r *RerankingRetriever) Name() string {
	return r.name
}

// Index delegates to the base retriever.
func (r *RerankingRetriever) Index(ctx context.Context, docs []core.Document) error {
	return r.base.Index(ctx, docs)
}

// Search fetches retrieveK candidates from the base retriever and reranks
// them down to k.
func (r *RerankingRetriever) Search(ctx context.Context, query string, k int) ([]core.SearchResult, error) {
	candidates, err := r.base.Search(ctx, query, r.retrieveK)
	if err != nil {
		return nil, fmt.Errorf("first-stage retrieval: %w", err)
	}

	results, err := r.reranker.Rerank(ctx, query, candidates, k)
	if err != nil {
		return nil, fmt.Errorf("rerank stage: %w", err)
	}

	r.logger.Debug("two-stage search", "candidates", len(candidates), "returned", len(results))
	return results, nil
}
