package chunk

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/searcheval/ai/mock"
	"github.com/poiesic/searcheval/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContextualChunker(t *testing.T) {
	base := NewRecursiveSplitter()
	generator := mock.NewMockGenerator()

	t.Run("valid configuration", func(t *testing.T) {
		c, err := NewContextualChunker(base, generator)
		require.NoError(t, err)
		assert.Equal(t, "contextual(recursive)", c.Name())
	})

	t.Run("nil base chunker", func(t *testing.T) {
		_, err := NewContextualChunker(nil, generator)
		assert.Equal(t, ErrBaseChunkerRequired, err)
	})

	t.Run("nil generator", func(t *testing.T) {
		_, err := NewContextualChunker(base, nil)
		assert.Equal(t, ErrGeneratorRequired, err)
	})
}

func TestContextualChunker_PrependsContext(t *testing.T) {
	base := NewRecursiveSplitter(WithChunkSize(50), WithChunkOverlap(0))
	generator := mock.NewMockGenerator()
	generator.Response = "This chunk describes the setup phase."

	c, err := NewContextualChunker(base, generator)
	require.NoError(t, err)

	text := strings.Repeat("setup step. ", 10) + "\n\n" + strings.Repeat("teardown step. ", 10)
	chunks, err := c.Chunk(context.Background(), core.Document{ID: "d1", Content: text})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, ch := range chunks {
		assert.True(t, strings.HasPrefix(ch.Content, "This chunk describes the setup phase.\n\n"))
		assert.Equal(t, "This chunk describes the setup phase.", ch.Metadata["context"])
		// The unmodified text survives in metadata for downstream inspection.
		assert.Equal(t, ch.Content, ch.Metadata["context"]+"\n\n"+ch.Metadata["original_content"])
	}
}

func TestContextualChunker_FallbackOnGeneratorFailure(t *testing.T) {
	base := NewRecursiveSplitter(WithChunkSize(60), WithChunkOverlap(0))
	generator := mock.NewMockGenerator()
	generator.GenerateFunc = func(context.Context, string, int) (string, error) {
		return "", errors.New("connection refused")
	}

	c, err := NewContextualChunker(base, generator)
	require.NoError(t, err)

	docText := strings.Repeat("line one two three four. ", 10)
	chunks, err := c.Chunk(context.Background(), core.Document{
		ID:       "d1",
		Content:  docText,
		Metadata: map[string]string{"path": "pkg/server.go"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	// Indexing is never blocked by model unavailability: a deterministic
	// description derived from the file type and position stands in.
	assert.Contains(t, chunks[0].Metadata["context"], "Go source file")
	assert.Contains(t, chunks[0].Metadata["context"], "Part 1 of")
}

func TestContextualChunker_CachesBySessionKey(t *testing.T) {
	base := NewRecursiveSplitter(WithChunkSize(2000))
	generator := mock.NewMockGenerator()
	generator.Response = "context"

	c, err := NewContextualChunker(base, generator)
	require.NoError(t, err)

	d := core.Document{ID: "d1", Content: "one small document"}

	_, err = c.Chunk(context.Background(), d)
	require.NoError(t, err)
	first := generator.CallCount()

	_, err = c.Chunk(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, first, generator.CallCount(), "second pass must hit the cache")

	c.ClearCache()
	_, err = c.Chunk(context.Background(), d)
	require.NoError(t, err)
	assert.Greater(t, generator.CallCount(), first)
}

func TestContextualChunker_TruncatesParentDocument(t *testing.T) {
	base := NewRecursiveSplitter(WithChunkSize(5000))
	generator := mock.NewMockGenerator()
	generator.Response = "context"

	c, err := NewContextualChunker(base, generator, WithMaxDocChars(100))
	require.NoError(t, err)

	long := strings.Repeat("abcdefghij", 200)
	_, err = c.Chunk(context.Background(), core.Document{ID: "d1", Content: long[:2000]})
	require.NoError(t, err)

	prompts := generator.Prompts()
	require.NotEmpty(t, prompts)
	// Prompt carries at most maxDocChars of the parent inside <document>.
	docSection := prompts[0][strings.Index(prompts[0], "<document>") : strings.Index(prompts[0], "</document>")]
	assert.LessOrEqual(t, len(docSection), 100+len("<document>\n")+1)
}
