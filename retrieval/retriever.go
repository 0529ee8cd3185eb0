package retrieval

import (
	"context"

	"github.com/poiesic/searcheval/core"
)

// Retriever indexes a corpus of documents and answers top-k searches.
type Retriever interface {
	// Name identifies the retriever for display and result provenance.
	// It is never used for dispatch.
	Name() string

	// Index embeds and indexes the documents, replacing any previous index.
	// Indexing is idempotent re-computation, not an incremental update.
	Index(ctx context.Context, docs []core.Document) error

	// Search returns the top-min(k, n) documents by descending score.
	// Searching an empty index returns an empty list; searching before
	// Index returns ErrNotIndexed.
	Search(ctx context.Context, query string, k int) ([]core.SearchResult, error)
}
