package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must return L2-normalized vectors: consumers assume cosine
// similarity can be computed as a plain dot product.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// Dimensions returns the width of the vectors this embedder produces.
	Dimensions() int

	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a text completion for a prompt.
// The harness performs no retries: backend unavailability surfaces as an
// error at the call site, and callers decide whether to substitute a
// fallback or propagate.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate returns the model's completion for the prompt, bounded by
	// maxTokens. A maxTokens of 0 leaves the limit to the backend.
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and Generator instances,
// ensuring they share configuration.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the text generation service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	Close() error
}
