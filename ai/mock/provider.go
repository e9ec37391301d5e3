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


package mock

import "github.com/tramovia/rutabot/ai"

// MockProvider bundles a MockEmbedder and a MockGenerator behind the
// ai.AIProvider interface so wiring code can be exercised without any
// real backend.
type MockProvider struct {
	embedder  *MockEmbedder
	generator *MockGenerator
}

var _ ai.AIProvider = (*MockProvider)(nil)

// NewMockProvider creates a provider whose services answer deterministically.
// Tests reach the concrete doubles through GetMockEmbedder and
// GetMockGenerator to inject behavior or inspect call counts.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		generator: NewMockGenerator(),
	}
}

// Embedder returns the mock embedding service.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the mock generation service.
func (p *MockProvider) Generator() ai.Generator {
	return p.generator
}

// Close is a no-op; the mock holds no resources.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder exposes the concrete embedder double.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockGenerator exposes the concrete generator double.
func (p *MockProvider) GetMockGenerator() *MockGenerator {
	return p.generator
}
