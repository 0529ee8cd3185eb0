package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/searcheval/ai/mock"
	"github.com/poiesic/searcheval/core"
)

// directionalEmbedder returns a mock embedder that maps known texts to
// fixed unit vectors, so similarity ordering is fully controlled.
func directionalEmbedder(vectors map[string][]float32) *mock.MockEmbedder {
	m := mock.NewMockEmbedder()
	m.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		if v, ok := vectors[text]; ok {
			return v, nil
		}
		return mock.DeterministicVector(text, 3), nil
	}
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, t := range texts {
			v, err := m.EmbedTextFunc(ctx, t)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	return m
}

func topicCorpus() []core.Document {
	return []core.Document{
		{ID: "a", Content: "Go is a statically typed programming language."},
		{ID: "b", Content: "Slow-roasted tomatoes deepen the flavor of the sauce."},
		{ID: "c", Content: "A cold front brings rain across the valley tomorrow."},
	}
}

// topicVectors places doc A near the query and B and C far from it.
func topicVectors(docs []core.Document) map[string][]float32 {
	return map[string][]float32{
		docs[0].Content:        {0.95, 0.05, 0.0},
		docs[1].Content:        {0.0, 1.0, 0.0},
		docs[2].Content:        {0.0, 0.0, 1.0},
		"programming language": {1.0, 0.0, 0.0},
	}
}

func TestNewVectorRetriever_RequiresEmbedder(t *testing.T) {
	_, err := NewVectorRetriever(nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestVectorRetriever_SearchBeforeIndex(t *testing.T) {
	r, err := NewVectorRetriever(mock.NewMockEmbedder())
	require.NoError(t, err)

	_, err = r.Search(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, ErrNotIndexed)
}

func TestVectorRetriever_EmptyCorpus(t *testing.T) {
	r, err := NewVectorRetriever(mock.NewMockEmbedder())
	require.NoError(t, err)
	require.NoError(t, r.Index(context.Background(), nil))

	results, err := r.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestVectorRetriever_RanksBySimilarity(t *testing.T) {
	docs := topicCorpus()
	r, err := NewVectorRetriever(directionalEmbedder(topicVectors(docs)))
	require.NoError(t, err)
	require.NoError(t, r.Index(context.Background(), docs))

	results, err := r.Search(context.Background(), "programming language", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a", results[0].Document.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Equal(t, "vector", results[0].Metadata["method"])
}

func TestVectorRetriever_KBeyondCorpus(t *testing.T) {
	docs := topicCorpus()
	r, err := NewVectorRetriever(directionalEmbedder(topicVectors(docs)))
	require.NoError(t, err)
	require.NoError(t, r.Index(context.Background(), docs))

	results, err := r.Search(context.Background(), "programming language", 100)
	require.NoError(t, err)
	assert.Len(t, results, len(docs))
}

func TestVectorRetriever_DimensionMismatchIsFatal(t *testing.T) {
	docs := topicCorpus()
	vectors := topicVectors(docs)
	// Query comes back narrower than the indexed matrix.
	vectors["programming language"] = []float32{1.0, 0.0}

	r, err := NewVectorRetriever(directionalEmbedder(vectors))
	require.NoError(t, err)
	require.NoError(t, r.Index(context.Background(), docs))

	_, err = r.Search(context.Background(), "programming language", 3)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestVectorRetriever_FromIndex(t *testing.T) {
	docs := topicCorpus()
	embedder := directionalEmbedder(topicVectors(docs))

	embeddings := make([][]float32, len(docs))
	for i, doc := range docs {
		v, err := embedder.EmbedText(context.Background(), doc.Content)
		require.NoError(t, err)
		embeddings[i] = v
	}

	t.Run("searches without reindexing", func(t *testing.T) {
		r, err := NewVectorRetrieverFromIndex(embedder, docs, embeddings)
		require.NoError(t, err)

		results, err := r.Search(context.Background(), "programming language", 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "a", results[0].Document.ID)
	})

	t.Run("rejects misaligned inputs", func(t *testing.T) {
		_, err := NewVectorRetrieverFromIndex(embedder, docs, embeddings[:1])
		assert.ErrorIs(t, err, ErrEmbeddingCountMismatch)
	})
}

func TestVectorRetriever_Reindex(t *testing.T) {
	docs := topicCorpus()
	r, err := NewVectorRetriever(directionalEmbedder(topicVectors(docs)))
	require.NoError(t, err)

	require.NoError(t, r.Index(context.Background(), docs))
	require.NoError(t, r.Index(context.Background(), docs[:1]))

	assert.Len(t, r.Documents(), 1)
	assert.Len(t, r.Embeddings(), 1)
}
