package chunk

import (
	"context"

	"github.com/poiesic/searcheval/core"
)

// Chunker splits a document into chunks.
// Implementations never fail on well-formed input; an empty or
// whitespace-only document yields zero chunks.
type Chunker interface {
	// Name identifies the chunker for display and result provenance.
	// It is never used for dispatch.
	Name() string

	// Chunk splits the document. Chunk ordering follows the chunk_num
	// metadata, which is sequential within one call.
	Chunk(ctx context.Context, doc core.Document) ([]core.Chunk, error)
}
