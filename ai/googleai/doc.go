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


// Package googleai provides the production ai.AIProvider implementation
// backed by Gemini-family APIs through langchaingo.
//
// One client is shared between the embedder and the generator; model
// selectors, temperature, token limits and safety thresholds are bound at
// provider construction and never vary per call.
package googleai
