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

package eval

import "errors"

var (
	// ErrRetrieverRequired is returned when evaluating a nil retriever.
	ErrRetrieverRequired = errors.New("retriever is required")

	// ErrNoGroundTruth is returned when evaluation has no supplied ground
	// truth and no judge to generate one.
	ErrNoGroundTruth = errors.New("no ground truth supplied and no judge configured to generate it")
)
