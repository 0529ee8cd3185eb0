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

import "errors"

var (
	// ErrIndexNotFound is returned when loading an index that was never saved.
	ErrIndexNotFound = errors.New("index not found")

	// ErrEmptyIndexName is returned for operations on an unnamed index.
	ErrEmptyIndexName = errors.New("index name is required")

	// ErrCorruptIndex is returned when a stored index fails deserialization
	// or its entry count disagrees with its metadata.
	ErrCorruptIndex = errors.New("index data is corrupt")

	// ErrMisalignedIndex is returned when documents and embeddings passed to
	// a save do not align positionally.
	ErrMisalignedIndex = errors.New("documents and embeddings are misaligned")

	// ErrBackendRequired is returned when constructing a repository without a backend.
	ErrBackendRequired = errors.New("backend is required")
)
