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

// Package storage defines the transcript persistence abstraction.
//
// The engine's knowledge corpus is ephemeral and rebuilt from the data source
// on startup, so the only thing worth persisting is the visible chat
// transcript. TranscriptStore decouples the session orchestrator from the
// concrete backend; the badger subpackage provides the default
// implementation.
//
// Public constructors in backend packages return the TranscriptStore
// interface rather than concrete types, so consumers never couple to one
// backend:
//
//	store, err := badger.NewTranscriptStore(backend)  // returns storage.TranscriptStore
//
// Messages are serialized with the mus binary format; see serialization.go
// for the field layout.
package storage
