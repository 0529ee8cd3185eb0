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


// Package retrieval turns a document corpus into a searchable index.
//
// Three retriever strategies share one interface: VectorRetriever (pure
// cosine similarity over dense embeddings), HybridRetriever (BM25 lexical
// scoring fused with vector similarity via weighted Reciprocal Rank Fusion)
// and RerankingRetriever (any retriever followed by a cross-encoder rerank
// stage). Strategies are selected by dependency injection, never by name.
package retrieval
