package core

import (
	"encoding/hex"
	"maps"

	"github.com/go-crypt/x/blake2b"
)

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the same ID, which keeps indexing idempotent.
func IDFromContent(text string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Document is a unit of indexable content. IDs are unique within a corpus and
// stable across a run; documents are immutable once indexed.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Chunk is a piece of a parent document produced by a chunker.
type Chunk struct {
	ID      string
	Content string
	// ParentID references the Document this chunk was split from.
	ParentID string
	// StartIdx and EndIdx are best-effort byte offsets into the parent
	// document. They are recovered by substring search after splitting and
	// may be approximate when separators are re-inserted or small parts are
	// merged; exact positional accuracy is out of contract.
	StartIdx int
	EndIdx   int
	Metadata map[string]string
}

// ToDocument converts the chunk into a Document suitable for indexing.
// Chunk provenance (parent ID, offsets) is carried in the document metadata.
func (c *Chunk) ToDocument() Document {
	metadata := make(map[string]string, len(c.Metadata)+1)
	maps.Copy(metadata, c.Metadata)
	metadata["parent_id"] = c.ParentID
	return Document{
		ID:       c.ID,
		Content:  c.Content,
		Metadata: metadata,
	}
}

// SearchResult is a scored document returned by a retriever or reranker.
// Result lists are ordered by descending score. Metadata may carry provenance
// such as the retrieval method or the pre-rerank score.
type SearchResult struct {
	Document Document
	Score    float64
	Metadata map[string]string
}
