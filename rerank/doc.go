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


// Package rerank re-scores retrieval candidates with a cross-encoder.
//
// A cross-encoder jointly encodes the query and each candidate document,
// which is more accurate than independent bi-encoder embeddings but too slow
// to run over a whole corpus. The intended use is a two-stage pipeline:
// retrieve a generous candidate set, then rerank it down to the final k.
package rerank
