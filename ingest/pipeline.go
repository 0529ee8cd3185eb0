package ingest

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/searcheval/ai"
	"github.com/poiesic/searcheval/chunk"
	"github.com/poiesic/searcheval/core"
	"github.com/poiesic/searcheval/storage"
)

// DefaultBatchSize is how many chunks each embedding call covers.
const DefaultBatchSize = 32

// Pipeline chunks documents, embeds the chunks through a worker pool and
// saves the resulting index. Embedding failures drop the affected chunks
// with a warning rather than failing the whole ingest.
type Pipeline struct {
	repository storage.IndexRepository
	embedder   ai.Embedder
	chunker    chunk.Chunker
	pool       *ants.Pool
	batchSize  int
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many chunks each embedding call covers.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size > 0 {
			p.batchSize = size
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(repository storage.IndexRepository, embedder ai.Embedder, chunker chunk.Chunker, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if chunker == nil {
		return nil, ErrChunkerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository: repository,
		embedder:   embedder,
		chunker:    chunker,
		pool:       pool,
		batchSize:  DefaultBatchSize,
		logger:     slog.Default().With("component", "ingest-pipeline"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Release frees the worker pool.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Report summarizes one ingest run.
type Report struct {
	Documents int
	Chunks    int
	Embedded  int
	Dropped   int
}

// Ingest chunks every document, embeds the chunks and saves them as the
// named index. Chunks whose embedding batch fails are dropped and counted
// in the report.
func (p *Pipeline) Ingest(ctx context.Context, indexName string, docs []core.Document) (*Report, error) {
	report := &Report{Documents: len(docs)}

	var chunkDocs []core.Document
	for _, doc := range docs {
		chunks, err := p.chunker.Chunk(ctx, doc)
		if err != nil {
			p.logger.Warn("chunking failed, skipping document", "doc_id", doc.ID, "err", err)
			continue
		}
		for _, c := range chunks {
			chunkDocs = append(chunkDocs, c.ToDocument())
		}
	}
	report.Chunks = len(chunkDocs)

	batches := batchRanges(len(chunkDocs), p.batchSize)
	embedded := make([][][]float32, len(batches))
	failed := make([]bool, len(batches))

	var wg sync.WaitGroup
	for i, r := range batches {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()

			contents := make([]string, r.end-r.start)
			for j := r.start; j < r.end; j++ {
				contents[j-r.start] = chunkDocs[j].Content
			}

			vectors, err := p.embedder.EmbedTexts(ctx, contents)
			if err != nil || len(vectors) != len(contents) {
				p.logger.Warn("embedding batch failed, dropping chunks",
					"batch", i, "chunks", len(contents), "err", err)
				failed[i] = true
				return
			}
			embedded[i] = vectors
		})
		if err != nil {
			// Pool rejected the task; run it inline so the batch is not lost.
			wg.Done()
			vectors, embedErr := p.embedder.EmbedTexts(ctx, contentsOf(chunkDocs[r.start:r.end]))
			if embedErr != nil || len(vectors) != r.end-r.start {
				failed[i] = true
			} else {
				embedded[i] = vectors
			}
		}
	}
	wg.Wait()

	// Reassemble in original chunk order, skipping failed batches.
	finalDocs := make([]core.Document, 0, len(chunkDocs))
	finalVectors := make([][]float32, 0, len(chunkDocs))
	for i, r := range batches {
		if failed[i] {
			report.Dropped += r.end - r.start
			continue
		}
		finalDocs = append(finalDocs, chunkDocs[r.start:r.end]...)
		finalVectors = append(finalVectors, embedded[i]...)
	}
	report.Embedded = len(finalDocs)

	if err := p.repository.SaveIndex(ctx, indexName, finalDocs, finalVectors); err != nil {
		return nil, err
	}

	p.logger.Info("ingest complete",
		"index", indexName,
		"documents", report.Documents,
		"chunks", report.Chunks,
		"embedded", report.Embedded,
		"dropped", report.Dropped)
	return report, nil
}

type batchRange struct {
	start, end int
}

func batchRanges(total, size int) []batchRange {
	if total == 0 {
		return nil
	}
	ranges := make([]batchRange, 0, (total+size-1)/size)
	for start := 0; start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}
		ranges = append(ranges, batchRange{start: start, end: end})
	}
	return ranges
}

func contentsOf(docs []core.Document) []string {
	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
	}
	return contents
}
