package judge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/searcheval/ai/mock"
	"github.com/poiesic/searcheval/core"
)

func resultWith(id, content string) core.SearchResult {
	return core.SearchResult{Document: core.Document{ID: id, Content: content}}
}

func TestNewRelevanceJudge_RequiresGenerator(t *testing.T) {
	_, err := NewRelevanceJudge(nil)
	assert.ErrorIs(t, err, ErrGeneratorRequired)
}

func TestJudge_ParsesScore(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.Response = `{"score": 2, "explanation": "directly answers the query"}`

	j, err := NewRelevanceJudge(gen)
	require.NoError(t, err)

	judgment := j.Judge(context.Background(), "what is go", resultWith("d1", "Go is a language."))
	assert.Equal(t, 2, judgment.Score)
	assert.Equal(t, "directly answers the query", judgment.Explanation)
	assert.Equal(t, "what is go", judgment.Query)
	assert.Equal(t, "d1", judgment.DocID)
}

func TestJudge_ToleratesProseAroundJSON(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.Response = "Sure, here is my assessment:\n```json\n{\"score\": 0, \"explanation\": \"off topic\"}\n```\nHope that helps."

	j, err := NewRelevanceJudge(gen)
	require.NoError(t, err)

	judgment := j.Judge(context.Background(), "q", resultWith("d1", "content"))
	assert.Equal(t, 0, judgment.Score)
}

func TestJudge_ClampsScore(t *testing.T) {
	cases := []struct {
		response string
		want     int
	}{
		{`{"score": 7, "explanation": "x"}`, 2},
		{`{"score": -3, "explanation": "x"}`, 0},
	}
	for _, tc := range cases {
		gen := mock.NewMockGenerator()
		gen.Response = tc.response

		j, err := NewRelevanceJudge(gen)
		require.NoError(t, err)

		judgment := j.Judge(context.Background(), "q", resultWith("d1", "content"))
		assert.Equal(t, tc.want, judgment.Score)
	}
}

func TestJudge_DefaultsOnGenerationFailure(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(context.Context, string, int) (string, error) {
		return "", errors.New("backend unreachable")
	}

	j, err := NewRelevanceJudge(gen)
	require.NoError(t, err)

	judgment := j.Judge(context.Background(), "q", resultWith("d1", "content"))
	assert.Equal(t, DefaultScore, judgment.Score)
	assert.Contains(t, judgment.Explanation, "generation failed")
}

func TestJudge_DefaultsOnGarbageResponse(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.Response = "I cannot produce structured output today."

	j, err := NewRelevanceJudge(gen)
	require.NoError(t, err)

	judgment := j.Judge(context.Background(), "q", resultWith("d1", "content"))
	assert.Equal(t, DefaultScore, judgment.Score)
	assert.Contains(t, judgment.Explanation, "unparseable")
}

func TestJudge_RepairsUnquotedKeys(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.Response = `{score": 2, explanation": "relevant"}`

	j, err := NewRelevanceJudge(gen)
	require.NoError(t, err)

	judgment := j.Judge(context.Background(), "q", resultWith("d1", "content"))
	assert.Equal(t, 2, judgment.Score)
}

func TestJudge_TruncatesLongDocuments(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.Response = `{"score": 1, "explanation": "x"}`

	j, err := NewRelevanceJudge(gen, WithMaxDocChars(100))
	require.NoError(t, err)

	longDoc := strings.Repeat("z", 5000)
	j.Judge(context.Background(), "q", resultWith("d1", longDoc))

	require.Len(t, gen.Prompts(), 1)
	assert.NotContains(t, gen.Prompts()[0], strings.Repeat("z", 101))
	assert.Contains(t, gen.Prompts()[0], strings.Repeat("z", 100))
}

func TestJudgeBatch_ReportsProgress(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.Response = `{"score": 1, "explanation": "x"}`

	j, err := NewRelevanceJudge(gen)
	require.NoError(t, err)

	results := []core.SearchResult{
		resultWith("d1", "one"),
		resultWith("d2", "two"),
		resultWith("d3", "three"),
	}

	var ticks []int
	judgments := j.JudgeBatch(context.Background(), "q", results, func(done, total int) {
		assert.Equal(t, 3, total)
		ticks = append(ticks, done)
	})

	assert.Len(t, judgments, 3)
	assert.Equal(t, []int{1, 2, 3}, ticks)
	assert.Equal(t, 3, gen.CallCount())
}

func TestJudgeBatch_FailuresDoNotAbort(t *testing.T) {
	gen := mock.NewMockGenerator()
	calls := 0
	gen.GenerateFunc = func(context.Context, string, int) (string, error) {
		calls++
		if calls == 2 {
			return "", errors.New("transient")
		}
		return `{"score": 2, "explanation": "ok"}`, nil
	}

	j, err := NewRelevanceJudge(gen)
	require.NoError(t, err)

	results := []core.SearchResult{
		resultWith("d1", "one"),
		resultWith("d2", "two"),
		resultWith("d3", "three"),
	}
	judgments := j.JudgeBatch(context.Background(), "q", results, nil)

	require.Len(t, judgments, 3)
	assert.Equal(t, 2, judgments[0].Score)
	assert.Equal(t, DefaultScore, judgments[1].Score)
	assert.Equal(t, 2, judgments[2].Score)
}
