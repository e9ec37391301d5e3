// Copyright 2025 Tramovia
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

package engine

import "errors"

var (
	// ErrBuilderRequired is returned when a corpus builder is not provided.
	ErrBuilderRequired = errors.New("corpus builder required")

	// ErrEmbedderRequired is returned when an embedding generator is not provided.
	ErrEmbedderRequired = errors.New("embedding generator required")

	// ErrGeneratorRequired is returned when a text generator is not provided.
	ErrGeneratorRequired = errors.New("text generator required")

	// ErrNotReady is returned when an operation requires a built corpus.
	ErrNotReady = errors.New("engine not ready")

	// ErrInvalidTopK is returned when the retrieval depth is not positive.
	ErrInvalidTopK = errors.New("topK must be positive")
)
