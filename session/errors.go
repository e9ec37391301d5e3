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

package session

import "errors"

var (
	// ErrEngineRequired is returned when a conversational engine is not provided.
	ErrEngineRequired = errors.New("conversational engine required")

	// ErrStoreRequired is returned when a transcript store option is given a nil store.
	ErrStoreRequired = errors.New("transcript store required")

	// ErrEmptySessionID is returned when a transcript store option is given an empty session id.
	ErrEmptySessionID = errors.New("empty session id")

	// ErrNotInitialized is returned by operations that require a prior successful Initialize.
	ErrNotInitialized = errors.New("session not initialized")
)
