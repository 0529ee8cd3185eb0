package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	t.Run("lowercases and splits", func(t *testing.T) {
		assert.Equal(t, []string{"hello", "world"}, tokenize("Hello, World!"))
	})

	t.Run("keeps underscores and digits", func(t *testing.T) {
		assert.Equal(t, []string{"my_func", "v2"}, tokenize("my_func v2"))
	})

	t.Run("drops stop words", func(t *testing.T) {
		assert.Equal(t, []string{"cat", "sat", "mat"}, tokenize("the cat sat on the mat"))
	})

	t.Run("drops single characters", func(t *testing.T) {
		assert.Equal(t, []string{"thing"}, tokenize("x y z thing"))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, tokenize(""))
	})
}

func TestBM25_Monotonicity(t *testing.T) {
	// Adding an occurrence of a query term never decreases the score
	// relative to an otherwise-identical document.
	tokenized := [][]string{
		{"golang", "compiler", "design"},
		{"golang", "golang", "compiler", "design"},
		{"unrelated", "words", "here"},
	}
	idx := newBM25Index(tokenized)
	scores := idx.score([]string{"golang"})

	assert.Greater(t, scores[1], scores[0])
	assert.Zero(t, scores[2])
}

func TestBM25_IDFAlwaysPositive(t *testing.T) {
	// The +1 inside the log keeps IDF positive even when every document
	// contains the term.
	tokenized := [][]string{
		{"common", "alpha"},
		{"common", "beta"},
		{"common", "gamma"},
	}
	idx := newBM25Index(tokenized)
	scores := idx.score([]string{"common"})
	for i, s := range scores {
		assert.Greater(t, s, 0.0, "doc %d", i)
	}
}

func TestBM25_EmptyDocsExcludedFromAvgLength(t *testing.T) {
	withEmpty := newBM25Index([][]string{
		{"term", "one", "two", "three"},
		{},
		{},
	})
	withoutEmpty := newBM25Index([][]string{
		{"term", "one", "two", "three"},
	})

	// Same non-empty content, so length normalization must match: empty
	// docs do not drag the average down. Document frequency statistics
	// differ (N changes), so compare the normalization denominator via
	// avgDocLen directly.
	assert.Equal(t, withoutEmpty.avgDocLen, withEmpty.avgDocLen)
}

func TestBM25_EmptyCorpus(t *testing.T) {
	idx := newBM25Index(nil)
	scores := idx.score([]string{"anything"})
	require.Empty(t, scores)
}

func TestBM25_LengthNormalization(t *testing.T) {
	// One mention in a short doc outweighs one mention in a long doc.
	long := []string{"needle"}
	for i := 0; i < 50; i++ {
		long = append(long, "filler")
	}
	idx := newBM25Index([][]string{{"needle", "short"}, long})
	scores := idx.score([]string{"needle"})
	assert.Greater(t, scores[0], scores[1])
}
