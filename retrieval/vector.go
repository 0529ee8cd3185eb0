package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/poiesic/searcheval/ai"
	"github.com/poiesic/searcheval/core"
)

// VectorRetriever ranks documents by cosine similarity between dense
// embeddings. Vectors are L2-normalized by contract, so similarity is a
// plain dot product against the embedding matrix.
type VectorRetriever struct {
	embedder   ai.Embedder
	docs       []core.Document
	embeddings [][]float32
	indexed    bool
	logger     *slog.Logger
}

// VectorOption configures a VectorRetriever.
type VectorOption func(*VectorRetriever)

// WithVectorLogger sets a custom logger.
// Default is slog.Default().
func WithVectorLogger(logger *slog.Logger) VectorOption {
	return func(r *VectorRetriever) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewVectorRetriever creates an unindexed vector retriever.
func NewVectorRetriever(embedder ai.Embedder, opts ...VectorOption) (*VectorRetriever, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &VectorRetriever{
		embedder: embedder,
		logger:   slog.Default().With("component", "vector-retriever"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// NewVectorRetrieverFromIndex creates a retriever over a previously
// persisted index, skipping re-embedding. Embeddings must align
// positionally with docs.
func NewVectorRetrieverFromIndex(embedder ai.Embedder, docs []core.Document, embeddings [][]float32, opts ...VectorOption) (*VectorRetriever, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if len(docs) != len(embeddings) {
		return nil, fmt.Errorf("%w: %d documents, %d embeddings", ErrEmbeddingCountMismatch, len(docs), len(embeddings))
	}

	r, err := NewVectorRetriever(embedder, opts...)
	if err != nil {
		return nil, err
	}
	r.docs = docs
	r.embeddings = embeddings
	r.indexed = true
	return r, nil
}

// Name returns the retriever name.
func (r *VectorRetriever) Name() string {
	return "vector"
}

// Documents returns the indexed corpus in index order.
func (r *VectorRetriever) Documents() []core.Document {
	return r.docs
}

// Embeddings returns the embedding matrix, aligned with Documents.
func (r *VectorRetriever) Embeddings() [][]float32 {
	return r.embeddings
}

// Index embeds all document contents in one batch call and stores the
// resulting matrix. Re-indexing replaces the previous index.
func (r *VectorRetriever) Index(ctx context.Context, docs []core.Document) error {
	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
	}

	var embeddings [][]float32
	if len(contents) > 0 {
		var err error
		embeddings, err = r.embedder.EmbedTexts(ctx, contents)
		if err != nil {
			return fmt.Errorf("embedding corpus: %w", err)
		}
		if len(embeddings) != len(docs) {
			return fmt.Errorf("%w: %d documents, %d embeddings", ErrEmbeddingCountMismatch, len(docs), len(embeddings))
		}
	}

	r.docs = docs
	r.embeddings = embeddings
	r.indexed = true
	r.logger.Debug("indexed corpus", "documents", len(docs))
	return nil
}

// Search embeds the query and returns the top-min(k, n) documents by
// descending dot-product similarity.
func (r *VectorRetriever) Search(ctx context.Context, query string, k int) ([]core.SearchResult, error) {
	if !r.indexed {
		return nil, ErrNotIndexed
	}
	if len(r.docs) == 0 || k <= 0 {
		return []core.SearchResult{}, nil
	}

	queryVec, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	scores, err := similarities(queryVec, r.embeddings)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}

	results := make([]core.SearchResult, k)
	for i := 0; i < k; i++ {
		idx := order[i]
		results[i] = core.SearchResult{
			Document: r.docs[idx],
			Score:    scores[idx],
			Metadata: map[string]string{"method": r.Name()},
		}
	}
	return results, nil
}

// similarities computes the dot product of query against every row of the
// matrix. A width mismatch is fatal.
func similarities(query []float32, matrix [][]float32) ([]float64, error) {
	scores := make([]float64, len(matrix))
	for i, row := range matrix {
		if len(row) != len(query) {
			return nil, fmt.Errorf("%w: query %d, index %d", ErrDimensionMismatch, len(query), len(row))
		}
		var dot float64
		for j := range row {
			dot += float64(query[j]) * float64(row[j])
		}
		scores[i] = dot
	}
	return scores, nil
}
