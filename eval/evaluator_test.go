package eval

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/searcheval/ai/mock"
	"github.com/poiesic/searcheval/core"
	"github.com/poiesic/searcheval/judge"
)

// fakeRetriever serves canned results per query.
type fakeRetriever struct {
	name    string
	results map[string][]core.SearchResult
}

func (f *fakeRetriever) Name() string { return f.name }

func (f *fakeRetriever) Index(context.Context, []core.Document) error { return nil }

func (f *fakeRetriever) Search(_ context.Context, query string, k int) ([]core.SearchResult, error) {
	results := f.results[query]
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// markerGenerator scores documents by a "rel:N" marker in their content.
func markerGenerator() *mock.MockGenerator {
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(_ context.Context, prompt string, _ int) (string, error) {
		for s := 2; s >= 0; s-- {
			if strings.Contains(prompt, fmt.Sprintf("rel:%d", s)) {
				return fmt.Sprintf(`{"score": %d, "explanation": "marker"}`, s), nil
			}
		}
		return `{"score": 0, "explanation": "no marker"}`, nil
	}
	return gen
}

func markedResult(id string, score int) core.SearchResult {
	return core.SearchResult{Document: core.Document{ID: id, Content: fmt.Sprintf("rel:%d content for %s", score, id)}}
}

func TestEvaluate_RequiresRetriever(t *testing.T) {
	e := NewEvaluator()
	_, err := e.Evaluate(context.Background(), nil, []string{"q"}, nil)
	assert.ErrorIs(t, err, ErrRetrieverRequired)
}

func TestEvaluate_NoGroundTruthNoJudge(t *testing.T) {
	e := NewEvaluator()
	r := &fakeRetriever{name: "fake"}
	_, err := e.Evaluate(context.Background(), r, []string{"q"}, nil)
	assert.ErrorIs(t, err, ErrNoGroundTruth)
}

func TestEvaluate_SuppliedGroundTruth(t *testing.T) {
	r := &fakeRetriever{
		name: "fake",
		results: map[string][]core.SearchResult{
			"q1": resultsWithIDs("a", "x", "b"),
			"q2": resultsWithIDs("y", "z"),
		},
	}
	gt := &GroundTruth{
		Relevant: map[string]map[string]bool{
			"q1": relevantSet("a", "b"),
			"q2": {},
		},
	}

	e := NewEvaluator(WithCalculator(NewCalculator(WithKValues(1, 3))))
	result, err := e.Evaluate(context.Background(), r, []string{"q1", "q2"}, gt)
	require.NoError(t, err)

	assert.Equal(t, "fake", result.RetrieverName)
	require.Len(t, result.PerQuery, 2)
	assert.Equal(t, 1.0, result.PerQuery[0].PrecisionAtK[1])
	assert.InDelta(t, 2.0/3.0, result.PerQuery[0].PrecisionAtK[3], 1e-9)
	assert.Equal(t, 2, result.Aggregate.NumQueries)

	// Only q1 has a relevant document.
	assert.InDelta(t, 0.5, result.GroundTruthCoverage, 1e-9)
}

func TestEvaluate_GeneratesGroundTruth(t *testing.T) {
	gen := markerGenerator()
	j, err := judge.NewRelevanceJudge(gen)
	require.NoError(t, err)

	r := &fakeRetriever{
		name: "fake",
		results: map[string][]core.SearchResult{
			"q1": {markedResult("hit", 2), markedResult("partial", 1), markedResult("miss", 0)},
		},
	}

	e := NewEvaluator(WithJudge(j), WithStoreJudgments(true))
	result, err := e.Evaluate(context.Background(), r, []string{"q1"}, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"hit": true, "partial": true}, result.GroundTruth.Relevant["q1"])
	assert.Equal(t, map[string]int{"hit": 2, "partial": 1, "miss": 0}, result.GroundTruth.Scores["q1"])
	require.Contains(t, result.Judgments, "q1")
	assert.Len(t, result.Judgments["q1"], 3)
	assert.Equal(t, 3, gen.CallCount())
	assert.InDelta(t, 1.0, result.GroundTruthCoverage, 1e-9)
}

func TestEvaluate_JudgmentsNotStoredByDefault(t *testing.T) {
	j, err := judge.NewRelevanceJudge(markerGenerator())
	require.NoError(t, err)

	r := &fakeRetriever{
		name:    "fake",
		results: map[string][]core.SearchResult{"q1": {markedResult("hit", 2)}},
	}

	e := NewEvaluator(WithJudge(j))
	result, err := e.Evaluate(context.Background(), r, []string{"q1"}, nil)
	require.NoError(t, err)
	assert.Nil(t, result.Judgments)
}

func TestCompare_ReusesGroundTruth(t *testing.T) {
	gen := markerGenerator()
	j, err := judge.NewRelevanceJudge(gen)
	require.NoError(t, err)

	baseline := &fakeRetriever{
		name: "baseline",
		results: map[string][]core.SearchResult{
			"q1": {markedResult("miss", 0), markedResult("hit", 2)},
		},
	}
	candidate := &fakeRetriever{
		name: "candidate",
		results: map[string][]core.SearchResult{
			"q1": {markedResult("hit", 2), markedResult("miss", 0)},
		},
	}

	e := NewEvaluator(WithJudge(j), WithCalculator(NewCalculator(WithKValues(1))))
	baseResult, candResult, comparison, err := e.Compare(context.Background(), baseline, candidate, []string{"q1"}, nil)
	require.NoError(t, err)

	// Only the baseline run judged; the candidate reused its ground truth.
	assert.Equal(t, 2, gen.CallCount())
	assert.Equal(t, baseResult.GroundTruth.Relevant, candResult.GroundTruth.Relevant)

	// The candidate ranks the relevant document first.
	assert.InDelta(t, 0.5, baseResult.Aggregate.MRR, 1e-9)
	assert.InDelta(t, 1.0, candResult.Aggregate.MRR, 1e-9)

	assert.Contains(t, comparison, "baseline")
	assert.Contains(t, comparison, "candidate")
	assert.Contains(t, comparison, "MRR")
	assert.Contains(t, comparison, "Precision@1")
}

func TestCompare_RequiresBothRetrievers(t *testing.T) {
	e := NewEvaluator()
	_, _, _, err := e.Compare(context.Background(), nil, &fakeRetriever{}, []string{"q"}, nil)
	assert.ErrorIs(t, err, ErrRetrieverRequired)
}
