package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/searcheval/core"
)

// stubReranker reverses candidate order and records the topK it was asked for.
type stubReranker struct {
	name      string
	lastTopK  int
	lastInput int
}

func (s *stubReranker) Name() string { return s.name }

func (s *stubReranker) Rerank(_ context.Context, _ string, results []core.SearchResult, topK int) ([]core.SearchResult, error) {
	s.lastTopK = topK
	s.lastInput = len(results)

	reversed := make([]core.SearchResult, len(results))
	for i, res := range results {
		reversed[len(results)-1-i] = res
	}
	if topK > 0 && topK < len(reversed) {
		reversed = reversed[:topK]
	}
	return reversed, nil
}

func TestNewRerankingRetriever_Guards(t *testing.T) {
	base, err := NewVectorRetriever(directionalEmbedder(nil))
	require.NoError(t, err)

	t.Run("nil base", func(t *testing.T) {
		_, err := NewRerankingRetriever(nil, &stubReranker{})
		assert.ErrorIs(t, err, ErrBaseRetrieverRequired)
	})

	t.Run("nil reranker", func(t *testing.T) {
		_, err := NewRerankingRetriever(base, nil)
		assert.ErrorIs(t, err, ErrRerankerRequired)
	})
}

func TestRerankingRetriever_NameFixedAtConstruction(t *testing.T) {
	base, err := NewVectorRetriever(directionalEmbedder(nil))
	require.NoError(t, err)

	rr := &stubReranker{name: "stub"}
	r, err := NewRerankingRetriever(base, rr)
	require.NoError(t, err)

	assert.Equal(t, "vector+stub", r.Name())

	// Renaming the wrapped reranker afterwards must not change identity.
	rr.name = "renamed"
	assert.Equal(t, "vector+stub", r.Name())
}

func TestRerankingRetriever_TwoStageFlow(t *testing.T) {
	docs := topicCorpus()
	base, err := NewVectorRetriever(directionalEmbedder(topicVectors(docs)))
	require.NoError(t, err)

	rr := &stubReranker{name: "stub"}
	r, err := NewRerankingRetriever(base, rr, WithRetrieveK(2))
	require.NoError(t, err)

	require.NoError(t, r.Index(context.Background(), docs))

	results, err := r.Search(context.Background(), "programming language", 1)
	require.NoError(t, err)

	// First stage fetched retrieveK candidates, second stage cut to k.
	assert.Equal(t, 2, rr.lastInput)
	assert.Equal(t, 1, rr.lastTopK)
	require.Len(t, results, 1)

	// The stub reverses, so the base's second-best comes out on top. This
	// proves the reranker's ordering wins over the base ordering.
	baseResults, err := base.Search(context.Background(), "programming language", 2)
	require.NoError(t, err)
	assert.Equal(t, baseResults[1].Document.ID, results[0].Document.ID)
}

func TestRerankingRetriever_DefaultRetrieveK(t *testing.T) {
	base, err := NewVectorRetriever(directionalEmbedder(nil))
	require.NoError(t, err)

	r, err := NewRerankingRetriever(base, &stubReranker{name: "stub"})
	require.NoError(t, err)
	assert.Equal(t, DefaultRetrieveK, r.retrieveK)
}

func TestRerankingRetriever_IndexDelegates(t *testing.T) {
	docs := topicCorpus()
	base, err := NewVectorRetriever(directionalEmbedder(topicVectors(docs)))
	require.NoError(t, err)

	r, err := NewRerankingRetriever(base, &stubReranker{name: "stub"})
	require.NoError(t, err)

	require.NoError(t, r.Index(context.Background(), docs))
	assert.Len(t, base.Documents(), len(docs))
}
