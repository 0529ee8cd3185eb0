package chunk

import (
	"context"
	"strconv"
	"strings"

	"github.com/poiesic/searcheval/core"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default overlap step used by fixed-width slicing.
const DefaultChunkOverlap = 200

// DefaultSeparators is the default separator priority list: section breaks
// first, then language construct markers, then paragraph, line and word
// breaks. Each separator is only tried once per branch; parts still over
// size recurse with the remaining separators.
var DefaultSeparators = []string{
	"\n\n\n",
	"\nclass ",
	"\ndef ",
	"\nfunction ",
	"\nexport ",
	"\n\n",
	"\n",
	" ",
}

// RecursiveSplitter splits text on an ordered list of separators, recursing
// into oversized parts with the remaining separators and falling back to
// fixed-width slicing when every separator is exhausted. Adjacent undersized
// parts are greedily merged to avoid producing many tiny chunks.
type RecursiveSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// RecursiveOption configures a RecursiveSplitter.
type RecursiveOption func(*RecursiveSplitter)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) RecursiveOption {
	return func(s *RecursiveSplitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithChunkOverlap sets the overlap used by the fixed-width fallback.
func WithChunkOverlap(overlap int) RecursiveOption {
	return func(s *RecursiveSplitter) {
		if overlap >= 0 {
			s.chunkOverlap = overlap
		}
	}
}

// WithSeparators replaces the separator priority list.
func WithSeparators(separators []string) RecursiveOption {
	return func(s *RecursiveSplitter) {
		if len(separators) > 0 {
			s.separators = separators
		}
	}
}

// NewRecursiveSplitter creates a splitter with the given options.
func NewRecursiveSplitter(opts ...RecursiveOption) *RecursiveSplitter {
	s := &RecursiveSplitter{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		separators:   DefaultSeparators,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Overlap must leave the slicing step positive
	if s.chunkOverlap >= s.chunkSize {
		s.chunkOverlap = s.chunkSize / 4
	}

	return s
}

// Name returns the chunker name.
func (s *RecursiveSplitter) Name() string {
	return "recursive"
}

// Chunk splits the document into chunks of at most the configured size.
// An empty or whitespace-only document yields zero chunks.
func (s *RecursiveSplitter) Chunk(_ context.Context, doc core.Document) ([]core.Chunk, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}

	parts := s.split(doc.Content, s.separators)
	parts = s.merge(parts)

	chunks := make([]core.Chunk, 0, len(parts))
	offset := 0
	for i, content := range parts {
		// Best-effort offset recovery: merged parts contain an injected
		// joiner and may not appear verbatim, in which case the running
		// offset stands in.
		start := strings.Index(doc.Content, content)
		if start < 0 {
			start = offset
		}
		end := start + len(content)
		offset = end

		chunks = append(chunks, core.Chunk{
			ID:       core.IDFromContent(doc.ID + "#" + strconv.Itoa(i) + "#" + content),
			Content:  content,
			ParentID: doc.ID,
			StartIdx: start,
			EndIdx:   end,
			Metadata: map[string]string{
				"chunk_num": strconv.Itoa(i),
				"chunker":   s.Name(),
			},
		})
	}

	return chunks, nil
}

// split recursively divides text using the separator priority list.
// The separator is re-attached to the start of every part except the first
// to preserve local context; a separator already tried is never retried in
// a recursive call.
func (s *RecursiveSplitter) split(text string, separators []string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	for i, sep := range separators {
		if !strings.Contains(text, sep) {
			continue
		}

		raw := strings.Split(text, sep)
		parts := make([]string, 0, len(raw))
		for j, part := range raw {
			if j > 0 {
				part = sep + part
			}
			if part == "" {
				continue
			}
			if len(part) > s.chunkSize {
				parts = append(parts, s.split(part, separators[i+1:])...)
			} else {
				parts = append(parts, part)
			}
		}
		return parts
	}

	return s.slice(text)
}

// slice is the fixed-width fallback for text with no usable separator.
func (s *RecursiveSplitter) slice(text string) []string {
	step := s.chunkSize - s.chunkOverlap
	if step < 1 {
		step = s.chunkSize
	}

	parts := make([]string, 0, len(text)/step+1)
	for start := 0; start < len(text); start += step {
		end := start + s.chunkSize
		if end >= len(text) {
			parts = append(parts, text[start:])
			break
		}
		parts = append(parts, text[start:end])
	}
	return parts
}

// merge greedily combines adjacent undersized parts, joined with a newline,
// up to the chunk size.
func (s *RecursiveSplitter) merge(parts []string) []string {
	merged := make([]string, 0, len(parts))
	current := ""
	for _, part := range parts {
		switch {
		case current == "":
			current = part
		case len(current)+1+len(part) <= s.chunkSize:
			current = current + "\n" + part
		default:
			merged = append(merged, current)
			current = part
		}
	}
	if current != "" {
		merged = append(merged, current)
	}
	return merged
}
