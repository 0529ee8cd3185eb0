package suite

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/searcheval/ai/mock"
	"github.com/poiesic/searcheval/core"
	"github.com/poiesic/searcheval/eval"
	"github.com/poiesic/searcheval/judge"
)

type cannedRetriever struct {
	name    string
	results map[string][]core.SearchResult
}

func (c *cannedRetriever) Name() string { return c.name }

func (c *cannedRetriever) Index(context.Context, []core.Document) error { return nil }

func (c *cannedRetriever) Search(_ context.Context, query string, k int) ([]core.SearchResult, error) {
	results := c.results[query]
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func markedResult(id string, score int) core.SearchResult {
	return core.SearchResult{Document: core.Document{ID: id, Content: fmt.Sprintf("rel:%d content %s", score, id)}}
}

func markerJudge(t *testing.T) (*judge.RelevanceJudge, *mock.MockGenerator) {
	t.Helper()
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(_ context.Context, prompt string, _ int) (string, error) {
		for s := 2; s >= 0; s-- {
			if strings.Contains(prompt, fmt.Sprintf("rel:%d", s)) {
				return fmt.Sprintf(`{"score": %d, "explanation": "marker"}`, s), nil
			}
		}
		return `{"score": 0, "explanation": "none"}`, nil
	}
	j, err := judge.NewRelevanceJudge(gen)
	require.NoError(t, err)
	return j, gen
}

func TestNewRunner_RequiresEvaluator(t *testing.T) {
	_, err := NewRunner(nil)
	assert.ErrorIs(t, err, ErrEvaluatorRequired)
}

func TestRun_RequiresConfigs(t *testing.T) {
	r, err := NewRunner(eval.NewEvaluator())
	require.NoError(t, err)

	_, err = r.Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNoConfigs)
}

func TestRun_ReusesFirstConfigGroundTruth(t *testing.T) {
	j, gen := markerJudge(t)

	queries := QuerySuite{
		{Text: "q1", Category: CategoryDiscovery},
		{Text: "q2", Category: CategoryProcess},
	}
	results := map[string][]core.SearchResult{
		"q1": {markedResult("a", 2), markedResult("b", 0)},
		"q2": {markedResult("c", 1)},
	}

	first := &cannedRetriever{name: "first", results: results}
	second := &cannedRetriever{name: "second", results: map[string][]core.SearchResult{
		"q1": {markedResult("b", 0), markedResult("a", 2)},
		"q2": {markedResult("c", 1)},
	}}

	r, err := NewRunner(eval.NewEvaluator(eval.WithJudge(j)))
	require.NoError(t, err)

	result, err := r.Run(context.Background(), queries, []Config{
		{Name: "first", Retriever: first},
		{Name: "second", Retriever: second},
	})
	require.NoError(t, err)
	require.Len(t, result.Configs, 2)

	// Three pairs judged for the first configuration, zero for the second.
	assert.Equal(t, 3, gen.CallCount())
	assert.Equal(t, result.GroundTruth.Relevant, result.Configs[1].Evaluation.GroundTruth.Relevant)
}

func TestRun_CategoryMRRBreakdown(t *testing.T) {
	j, _ := markerJudge(t)

	queries := QuerySuite{
		{Text: "q1", Category: CategoryDiscovery},
		{Text: "q2", Category: CategoryProcess},
	}
	// q1 ranks its relevant doc first (RR 1), q2 ranks it second (RR 0.5).
	retriever := &cannedRetriever{name: "r", results: map[string][]core.SearchResult{
		"q1": {markedResult("a", 2), markedResult("b", 0)},
		"q2": {markedResult("x", 0), markedResult("y", 2)},
	}}

	r, err := NewRunner(eval.NewEvaluator(eval.WithJudge(j)))
	require.NoError(t, err)

	result, err := r.Run(context.Background(), queries, []Config{{Name: "r", Retriever: retriever}})
	require.NoError(t, err)

	breakdown := result.Configs[0].CategoryMRR
	assert.InDelta(t, 1.0, breakdown[CategoryDiscovery], 1e-9)
	assert.InDelta(t, 0.5, breakdown[CategoryProcess], 1e-9)
	assert.NotContains(t, breakdown, CategoryHistorical)
}
