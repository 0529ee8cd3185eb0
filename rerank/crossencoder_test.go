package rerank

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/searcheval/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubScorer is a test double for Scorer with call counting.
type stubScorer struct {
	scores    map[string]float64
	callCount int
}

func (s *stubScorer) Name() string { return "stub" }

func (s *stubScorer) Score(_ context.Context, _ string, passages []string) ([]float64, error) {
	s.callCount++
	out := make([]float64, len(passages))
	for i, p := range passages {
		out[i] = s.scores[p]
	}
	return out, nil
}

func result(id, content string, score float64) core.SearchResult {
	return core.SearchResult{
		Document: core.Document{ID: id, Content: content},
		Score:    score,
		Metadata: map[string]string{"method": "vector"},
	}
}

func TestNewCrossEncoderReranker(t *testing.T) {
	t.Run("nil scorer", func(t *testing.T) {
		_, err := NewCrossEncoderReranker(nil)
		assert.Equal(t, ErrScorerRequired, err)
	})

	t.Run("name fixed from scorer", func(t *testing.T) {
		r, err := NewCrossEncoderReranker(&stubScorer{})
		require.NoError(t, err)
		assert.Equal(t, "cross-encoder(stub)", r.Name())
	})
}

func TestCrossEncoderReranker_EmptyInputSkipsModel(t *testing.T) {
	scorer := &stubScorer{}
	r, err := NewCrossEncoderReranker(scorer)
	require.NoError(t, err)

	out, err := r.Rerank(context.Background(), "query", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, scorer.callCount, "empty input must not invoke the model")
}

func TestCrossEncoderReranker_ReordersByModelScore(t *testing.T) {
	scorer := &stubScorer{scores: map[string]float64{
		"low relevance":  0.1,
		"high relevance": 0.9,
		"mid relevance":  0.5,
	}}
	r, err := NewCrossEncoderReranker(scorer)
	require.NoError(t, err)

	in := []core.SearchResult{
		result("a", "low relevance", 0.99),
		result("b", "high relevance", 0.10),
		result("c", "mid relevance", 0.50),
	}

	out, err := r.Rerank(context.Background(), "query", in, 0)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "b", out[0].Document.ID)
	assert.Equal(t, "c", out[1].Document.ID)
	assert.Equal(t, "a", out[2].Document.ID)

	// Provenance: pre-rerank score and method survive in metadata.
	assert.Equal(t, "0.100000", out[0].Metadata["original_score"])
	assert.Equal(t, "vector", out[0].Metadata["original_method"])
	assert.Equal(t, "cross-encoder(stub)", out[0].Metadata["method"])
}

func TestCrossEncoderReranker_TopKTruncation(t *testing.T) {
	scorer := &stubScorer{scores: map[string]float64{"a": 3, "b": 2, "c": 1}}
	r, err := NewCrossEncoderReranker(scorer)
	require.NoError(t, err)

	in := []core.SearchResult{result("a", "a", 0), result("b", "b", 0), result("c", "c", 0)}

	t.Run("topK truncates", func(t *testing.T) {
		out, err := r.Rerank(context.Background(), "q", in, 2)
		require.NoError(t, err)
		assert.Len(t, out, 2)
	})

	t.Run("topK zero returns all", func(t *testing.T) {
		out, err := r.Rerank(context.Background(), "q", in, 0)
		require.NoError(t, err)
		assert.Len(t, out, 3)
	})

	t.Run("topK beyond length returns all", func(t *testing.T) {
		out, err := r.Rerank(context.Background(), "q", in, 10)
		require.NoError(t, err)
		assert.Len(t, out, 3)
	})
}

func TestCrossEncoderReranker_Sigmoid(t *testing.T) {
	scorer := &stubScorer{scores: map[string]float64{"pos": 4.0, "neg": -4.0}}
	r, err := NewCrossEncoderReranker(scorer, WithSigmoid(true))
	require.NoError(t, err)

	out, err := r.Rerank(context.Background(), "q",
		[]core.SearchResult{result("p", "pos", 0), result("n", "neg", 0)}, 0)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.InDelta(t, 0.982, out[0].Score, 0.001)
	assert.InDelta(t, 0.018, out[1].Score, 0.001)
	for _, res := range out {
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 1.0)
	}
}

func TestHTTPScorer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rerank", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		// Scores mapped back by index, deliberately out of order.
		w.Write([]byte(`{"results":[{"index":1,"relevance_score":0.9},{"index":0,"relevance_score":0.2}]}`))
	}))
	defer server.Close()

	t.Run("requires base URL", func(t *testing.T) {
		_, err := NewHTTPScorer("")
		assert.Equal(t, ErrBaseURLRequired, err)
	})

	t.Run("score before ready", func(t *testing.T) {
		s, err := NewHTTPScorer(server.URL)
		require.NoError(t, err)
		_, err = s.Score(context.Background(), "q", []string{"x"})
		assert.ErrorIs(t, err, ErrNotReady)
	})

	t.Run("scores in passage order", func(t *testing.T) {
		s, err := NewHTTPScorer(server.URL, WithModel("test-model"))
		require.NoError(t, err)
		require.NoError(t, s.Ready(context.Background()))

		scores, err := s.Score(context.Background(), "q", []string{"first", "second"})
		require.NoError(t, err)
		assert.Equal(t, []float64{0.2, 0.9}, scores)
	})
}
