package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/poiesic/searcheval/ai"
	"github.com/poiesic/searcheval/core"
)

// DefaultAlpha balances lexical and semantic contributions equally.
const DefaultAlpha = 0.5

// rrfK is the standard Reciprocal Rank Fusion constant that keeps top ranks
// from dominating the fused score.
const rrfK = 60

// HybridRetriever maintains two parallel indices over the same corpus: a
// dense embedding matrix and a tokenized corpus for BM25. Searches compute
// both rankings independently and combine them with weighted Reciprocal
// Rank Fusion.
type HybridRetriever struct {
	embedder   ai.Embedder
	alpha      float64
	docs       []core.Document
	embeddings [][]float32
	bm25       *bm25Index
	indexed    bool
	logger     *slog.Logger
}

// HybridOption configures a HybridRetriever.
type HybridOption func(*HybridRetriever)

// WithAlpha sets the lexical-vs-semantic weight in [0, 1]: 1 is pure BM25,
// 0 is pure vector similarity. Values outside the range are clamped.
func WithAlpha(alpha float64) HybridOption {
	return func(r *HybridRetriever) {
		if alpha < 0 {
			alpha = 0
		}
		if alpha > 1 {
			alpha = 1
		}
		r.alpha = alpha
	}
}

// WithHybridLogger sets a custom logger.
// Default is slog.Default().
func WithHybridLogger(logger *slog.Logger) HybridOption {
	return func(r *HybridRetriever) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewHybridRetriever creates an unindexed hybrid retriever.
func NewHybridRetriever(embedder ai.Embedder, opts ...HybridOption) (*HybridRetriever, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &HybridRetriever{
		embedder: embedder,
		alpha:    DefaultAlpha,
		logger:   slog.Default().With("component", "hybrid-retriever"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// NewHybridRetrieverFromIndex creates a retriever over a previously
// persisted index. The lexical index is rebuilt from document contents,
// which is cheap next to embedding.
func NewHybridRetrieverFromIndex(embedder ai.Embedder, docs []core.Document, embeddings [][]float32, opts ...HybridOption) (*HybridRetriever, error) {
	if len(docs) != len(embeddings) {
		return nil, fmt.Errorf("%w: %d documents, %d embeddings", ErrEmbeddingCountMismatch, len(docs), len(embeddings))
	}

	r, err := NewHybridRetriever(embedder, opts...)
	if err != nil {
		return nil, err
	}
	r.docs = docs
	r.embeddings = embeddings
	r.bm25 = newBM25Index(tokenizeCorpus(docs))
	r.indexed = true
	return r, nil
}

// Name returns the retriever name.
func (r *HybridRetriever) Name() string {
	return "hybrid"
}

// Documents returns the indexed corpus in index order.
func (r *HybridRetriever) Documents() []core.Document {
	return r.docs
}

// Embeddings returns the embedding matrix, aligned with Documents.
func (r *HybridRetriever) Embeddings() [][]float32 {
	return r.embeddings
}

// Index builds both the dense and the lexical index.
func (r *HybridRetriever) Index(ctx context.Context, docs []core.Document) error {
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
	r.bm25 = newBM25Index(tokenizeCorpus(docs))
	r.indexed = true
	r.logger.Debug("indexed corpus", "documents", len(docs), "alpha", r.alpha)
	return nil
}

// Search fuses the BM25 and vector rankings with weighted RRF:
//
//	fused[doc] += alpha / (rrfK + bm25Rank + 1)
//	fused[doc] += (1 - alpha) / (rrfK + vectorRank + 1)
//
// Documents appearing in only one ranking still receive a nonzero fused
// score. Each constituent ranking is limited to 2k candidates to bound
// fusion cost.
func (r *HybridRetriever) Search(ctx context.Context, query string, k int) ([]core.SearchResult, error) {
	if !r.indexed {
		return nil, ErrNotIndexed
	}
	if len(r.docs) == 0 || k <= 0 {
		return []core.SearchResult{}, nil
	}

	candidates := 2 * k

	queryVec, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	vectorScores, err := similarities(queryVec, r.embeddings)
	if err != nil {
		return nil, err
	}
	vectorRanking := topIndices(vectorScores, candidates, false)

	bm25Scores := r.bm25.score(tokenize(query))
	bm25Ranking := topIndices(bm25Scores, candidates, true)

	fused := make(map[int]float64)
	for rank, idx := range bm25Ranking {
		fused[idx] += r.alpha / float64(rrfK+rank+1)
	}
	for rank, idx := range vectorRanking {
		fused[idx] += (1 - r.alpha) / float64(rrfK+rank+1)
	}

	order := make([]int, 0, len(fused))
	for idx := range fused {
		order = append(order, idx)
	}
	sort.Slice(order, func(a, b int) bool {
		if fused[order[a]] != fused[order[b]] {
			return fused[order[a]] > fused[order[b]]
		}
		return order[a] < order[b]
	})

	if k > len(order) {
		k = len(order)
	}

	results := make([]core.SearchResult, k)
	for i := 0; i < k; i++ {
		idx := order[i]
		results[i] = core.SearchResult{
			Document: r.docs[idx],
			Score:    fused[idx],
			Metadata: map[string]string{
				"method":       r.Name(),
				"bm25_score":   fmt.Sprintf("%.6f", bm25Scores[idx]),
				"vector_score": fmt.Sprintf("%.6f", vectorScores[idx]),
			},
		}
	}
	return results, nil
}

// topIndices returns up to limit document indices ordered by descending
// score. When skipZero is set, zero-score documents are excluded from the
// ranking entirely (a document matching no query term is not a lexical
// candidate).
func topIndices(scores []float64, limit int, skipZero bool) []int {
	order := make([]int, 0, len(scores))
	for i, s := range scores {
		if skipZero && s == 0 {
			continue
		}
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

// tokenizeCorpus tokenizes every document content for the lexical index.
func tokenizeCorpus(docs []core.Document) [][]string {
	tokenized := make([][]string, len(docs))
	for i, doc := range docs {
		tokenized[i] = tokenize(doc.Content)
	}
	return tokenized
}
