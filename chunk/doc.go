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


// Package chunk splits documents into indexable chunks.
//
// Two chunkers are provided: RecursiveSplitter, a pure splitting algorithm
// driven by an ordered separator priority list, and ContextualChunker, which
// wraps any chunker and prepends a short model-generated description of each
// chunk's place in its source document.
package chunk
