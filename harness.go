// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package searcheval evaluates retrieval pipelines: chunking, dense and
// hybrid retrieval, reranking, LLM relevance judging and IR metrics.
package searcheval

import (
	"context"
	"log/slog"

	"github.com/poiesic/searcheval/ai"
	"github.com/poiesic/searcheval/ai/openai"
	"github.com/poiesic/searcheval/chunk"
	"github.com/poiesic/searcheval/eval"
	"github.com/poiesic/searcheval/ingest"
	"github.com/poiesic/searcheval/judge"
	"github.com/poiesic/searcheval/retrieval"
	"github.com/poiesic/searcheval/storage"
	"github.com/poiesic/searcheval/storage/badger"
	"github.com/poiesic/searcheval/suite"
)

// Harness ties the storage backend and AI provider together and hands out
// wired pipelines, retrievers and evaluators.
type Harness struct {
	backend   *badger.Backend
	indexRepo storage.IndexRepository
	provider  ai.Provider
	logger    *slog.Logger
}

// HarnessOption configures a Harness.
type HarnessOption func(*harnessOptions)

type harnessOptions struct {
	aiConfig *ai.Config
	inMemory bool
}

// WithAIConfig overrides the default AI service configuration.
func WithAIConfig(config *ai.Config) HarnessOption {
	return func(o *harnessOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithInMemoryStorage keeps indexes in memory instead of on disk.
func WithInMemoryStorage() HarnessOption {
	return func(o *harnessOptions) {
		o.inMemory = true
	}
}

// NewHarness opens storage at filePath and connects the AI provider.
func NewHarness(filePath string, opts ...HarnessOption) (*Harness, error) {
	options := &harnessOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	indexRepo, err := badger.NewIndexRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Harness{
		backend:   backend,
		indexRepo: indexRepo,
		provider:  provider,
		logger:    slog.Default(),
	}, nil
}

// Close releases the AI provider and the storage backend.
func (h *Harness) Close() error {
	if err := h.provider.Close(); err != nil {
		h.logger.Error("error closing AI provider", "err", err)
	}
	if err := h.backend.Close(); err != nil {
		h.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// IndexRepository returns the index persistence layer.
func (h *Harness) IndexRepository() storage.IndexRepository {
	return h.indexRepo
}

// Provider returns the AI provider.
func (h *Harness) Provider() ai.Provider {
	return h.provider
}

// NewIngestionPipeline wires an ingest pipeline around the given chunker.
func (h *Harness) NewIngestionPipeline(chunker chunk.Chunker, opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(h.indexRepo, h.provider.Embedder(), chunker, opts...)
}

// OpenVectorRetriever loads a stored index into a dense retriever.
func (h *Harness) OpenVectorRetriever(ctx context.Context, indexName string, opts ...retrieval.VectorOption) (*retrieval.VectorRetriever, error) {
	docs, embeddings, err := h.indexRepo.LoadIndex(ctx, indexName)
	if err != nil {
		return nil, err
	}
	return retrieval.NewVectorRetrieverFromIndex(h.provider.Embedder(), docs, embeddings, opts...)
}

// OpenHybridRetriever loads a stored index into a hybrid retriever.
func (h *Harness) OpenHybridRetriever(ctx context.Context, indexName string, opts ...retrieval.HybridOption) (*retrieval.HybridRetriever, error) {
	docs, embeddings, err := h.indexRepo.LoadIndex(ctx, indexName)
	if err != nil {
		return nil, err
	}
	return retrieval.NewHybridRetrieverFromIndex(h.provider.Embedder(), docs, embeddings, opts...)
}

// NewJudge creates a relevance judge on the provider's generator.
func (h *Harness) NewJudge(opts ...judge.JudgeOption) (*judge.RelevanceJudge, error) {
	return judge.NewRelevanceJudge(h.provider.Generator(), opts...)
}

// NewEvaluator creates an evaluator with a judge already wired in. Options
// are applied after the judge, so it can still be overridden.
func (h *Harness) NewEvaluator(opts ...eval.EvaluatorOption) (*eval.Evaluator, error) {
	j, err := h.NewJudge()
	if err != nil {
		return nil, err
	}
	combined := append([]eval.EvaluatorOption{eval.WithJudge(j)}, opts...)
	return eval.NewEvaluator(combined...), nil
}

// NewSuiteRunner creates a multi-configuration runner around an evaluator
// wired with this harness's judge.
func (h *Harness) NewSuiteRunner(opts ...eval.EvaluatorOption) (*suite.Runner, error) {
	evaluator, err := h.NewEvaluator(opts...)
	if err != nil {
		return nil, err
	}
	return suite.NewRunner(evaluator)
}
