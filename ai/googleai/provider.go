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


package googleai

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tramovia/rutabot/ai"
)

// Provider implements ai.AIProvider on Gemini-family APIs.
// It manages embedder and generator instances sharing one client.
type Provider struct {
	config    *ai.Config
	embedder  *Embedder
	generator *Generator
	logger    *slog.Logger
}

// NewProvider creates a new AI provider backed by Gemini-family APIs.
// The config is validated before use; model selection, temperature and
// safety settings are fixed here and never vary per call.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to Gemini-specific implementation details.
func NewProvider(ctx context.Context, config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := googleai.New(ctx,
		googleai.WithAPIKey(config.APIKey),
		googleai.WithDefaultModel(config.GenerationModel),
		googleai.WithDefaultEmbeddingModel(config.EmbeddingModel),
		googleai.WithDefaultTemperature(config.Temperature),
		googleai.WithDefaultMaxTokens(config.MaxTokens),
		googleai.WithHarmThreshold(harmThreshold(config.SafetyThreshold)),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(client)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:    config,
		embedder:  embedder,
		generator: newGenerator(client),
		logger:    slog.Default().With("component", "googleai-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the text generation service.
func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying client doesn't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing googleai provider")
	return nil
}

// harmThreshold maps a config safety level onto the backend's block levels.
// Unknown values are caught by Config.Validate before reaching this point.
func harmThreshold(threshold string) googleai.HarmBlockThreshold {
	switch threshold {
	case ai.SafetyBlockNone:
		return googleai.HarmBlockNone
	case ai.SafetyBlockMediumAndAbove:
		return googleai.HarmBlockMediumAndAbove
	case ai.SafetyBlockLowAndAbove:
		return googleai.HarmBlockLowAndAbove
	default:
		return googleai.HarmBlockOnlyHigh
	}
}
