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


package retrieval

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrBaseRetrieverRequired is returned when a base retriever is not provided.
	ErrBaseRetrieverRequired = errors.New("base retriever required")

	// ErrRerankerRequired is returned when a reranker is not provided.
	ErrRerankerRequired = errors.New("reranker required")

	// ErrNotIndexed indicates Search was called before Index.
	// This is a programming error, not a recoverable condition.
	ErrNotIndexed = errors.New("retriever not indexed: call Index first")

	// ErrDimensionMismatch indicates the query embedding width differs from
	// the index embedding width. Fatal: the index must be rebuilt with the
	// same embedder that serves queries.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingCountMismatch indicates the embedder returned the wrong
	// number of vectors for a batch.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")
)
