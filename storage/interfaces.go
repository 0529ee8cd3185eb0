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

package storage

import (
	"context"

	"github.com/poiesic/searcheval/core"
)

// IndexRepository persists named retrieval indexes. An index is a document
// list plus its embedding matrix; load after save must round-trip document
// identity, content and metadata, with embeddings aligned positionally.
type IndexRepository interface {
	// SaveIndex stores or replaces a named index.
	// Documents and embeddings must have equal length.
	SaveIndex(ctx context.Context, name string, docs []core.Document, embeddings [][]float32) error

	// LoadIndex retrieves a named index.
	// Returns ErrIndexNotFound if the index was never saved.
	LoadIndex(ctx context.Context, name string) ([]core.Document, [][]float32, error)

	// Exists reports whether a named index has been saved.
	Exists(ctx context.Context, name string) (bool, error)

	// DeleteIndex removes a named index. Deleting a missing index is a no-op.
	DeleteIndex(ctx context.Context, name string) error

	// Close closes the storage backend and releases resources.
	Close() error
}
