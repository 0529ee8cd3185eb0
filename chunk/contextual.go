package chunk

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/poiesic/searcheval/ai"
	"github.com/poiesic/searcheval/core"
)

// DefaultMaxDocChars bounds how much of the parent document is included in
// the situating prompt.
const DefaultMaxDocChars = 8000

// contextMaxTokens bounds the generated situating description.
const contextMaxTokens = 120

const contextPromptTemplate = `<document>
%s
</document>

Here is the chunk we want to situate within the whole document:
<chunk>
%s
</chunk>

Please give a short succinct context (1-2 sentences) to situate this chunk
within the overall document for the purposes of improving search retrieval
of the chunk. Answer only with the succinct context and nothing else.`

// ContextualChunker wraps a base chunker and prepends a model-generated
// description of each chunk's place in its source document. Generated
// contexts are cached per (parent, chunk) for the lifetime of the chunker
// instance; the cache requires external synchronization if chunking is
// parallelized.
type ContextualChunker struct {
	base        Chunker
	generator   ai.Generator
	maxDocChars int
	cache       map[string]string
	name        string
	logger      *slog.Logger
}

// ContextualOption configures a ContextualChunker.
type ContextualOption func(*ContextualChunker)

// WithMaxDocChars sets how much of the parent document the situating prompt
// may include.
func WithMaxDocChars(n int) ContextualOption {
	return func(c *ContextualChunker) {
		if n > 0 {
			c.maxDocChars = n
		}
	}
}

// WithContextLogger sets a custom logger.
// Default is slog.Default().
func WithContextLogger(logger *slog.Logger) ContextualOption {
	return func(c *ContextualChunker) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// NewContextualChunker creates a contextual chunker around base.
func NewContextualChunker(base Chunker, generator ai.Generator, opts ...ContextualOption) (*ContextualChunker, error) {
	if base == nil {
		return nil, ErrBaseChunkerRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	c := &ContextualChunker{
		base:        base,
		generator:   generator,
		maxDocChars: DefaultMaxDocChars,
		cache:       make(map[string]string),
		name:        "contextual(" + base.Name() + ")",
		logger:      slog.Default().With("component", "contextual-chunker"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Name returns the chunker name, fixed at construction time.
func (c *ContextualChunker) Name() string {
	return c.name
}

// ClearCache drops every cached context.
func (c *ContextualChunker) ClearCache() {
	c.cache = make(map[string]string)
}

// Chunk splits the document with the base chunker and prepends a situating
// context to every chunk. Generator failures never block chunking: a
// deterministic fallback description is substituted so indexing can proceed
// without a model backend.
func (c *ContextualChunker) Chunk(ctx context.Context, doc core.Document) ([]core.Chunk, error) {
	chunks, err := c.base.Chunk(ctx, doc)
	if err != nil {
		return nil, err
	}

	for i := range chunks {
		original := chunks[i].Content
		situating := c.situate(ctx, doc, &chunks[i], i, len(chunks))

		chunks[i].Content = situating + "\n\n" + original
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = make(map[string]string)
		}
		chunks[i].Metadata["original_content"] = original
		chunks[i].Metadata["context"] = situating
	}

	return chunks, nil
}

// situate returns the cached or freshly generated context for one chunk.
func (c *ContextualChunker) situate(ctx context.Context, doc core.Document, chunk *core.Chunk, ordinal, total int) string {
	key := chunk.ParentID + "/" + chunk.ID
	if cached, ok := c.cache[key]; ok {
		return cached
	}

	parent := doc.Content
	if len(parent) > c.maxDocChars {
		parent = parent[:c.maxDocChars]
	}

	prompt := fmt.Sprintf(contextPromptTemplate, parent, chunk.Content)
	generated, err := c.generator.Generate(ctx, prompt, contextMaxTokens)
	if err != nil {
		c.logger.Warn("context generation failed, using fallback",
			"parent", chunk.ParentID,
			"chunk", chunk.ID,
			"err", err)
		generated = fallbackContext(doc, ordinal, total)
	}

	generated = strings.TrimSpace(generated)
	if generated == "" {
		generated = fallbackContext(doc, ordinal, total)
	}

	c.cache[key] = generated
	return generated
}

// fallbackContext builds a deterministic situating description from the
// document's file type and the chunk's ordinal position.
func fallbackContext(doc core.Document, ordinal, total int) string {
	return fmt.Sprintf("Part %d of %d of a %s.", ordinal+1, total, documentKind(doc))
}

// documentKind derives a readable document type from source metadata.
func documentKind(doc core.Document) string {
	path := doc.Metadata["path"]
	if path == "" {
		path = doc.Metadata["source"]
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "Go source file"
	case ".py":
		return "Python source file"
	case ".js", ".ts", ".jsx", ".tsx":
		return "JavaScript/TypeScript source file"
	case ".md", ".markdown":
		return "Markdown document"
	case ".json", ".yaml", ".yml", ".toml":
		return "configuration file"
	case ".sh":
		return "shell script"
	default:
		return "text document"
	}
}
