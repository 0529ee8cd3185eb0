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


package rerank

import "errors"

var (
	// ErrScorerRequired is returned when a scorer is not provided.
	ErrScorerRequired = errors.New("scorer required")

	// ErrScoreCountMismatch indicates the scorer returned the wrong number of scores.
	ErrScoreCountMismatch = errors.New("score count mismatch")

	// ErrBaseURLRequired is returned when the HTTP scorer has no endpoint.
	ErrBaseURLRequired = errors.New("scorer base URL required")

	// ErrNotReady indicates Score was called before Ready.
	ErrNotReady = errors.New("scorer not ready: call Ready first")
)
