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

package suite

import "errors"

var (
	// ErrRootRequired is returned when constructing a generator without a root path.
	ErrRootRequired = errors.New("repository root is required")

	// ErrEvaluatorRequired is returned when constructing a runner without an evaluator.
	ErrEvaluatorRequired = errors.New("evaluator is required")

	// ErrNoConfigs is returned when running a suite with no configurations.
	ErrNoConfigs = errors.New("at least one retriever configuration is required")
)
