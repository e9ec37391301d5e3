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


package embedding

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrUnavailable indicates the embedding provider kept failing after
	// retries. Callers are expected to keep the affected entry unembedded
	// rather than fail an entire corpus build.
	ErrUnavailable = errors.New("embedding provider unavailable")

	// ErrInvalidMaxAttempts indicates a retry configuration with no attempts.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than zero")
)
