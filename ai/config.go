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


package ai

import "errors"

// Safety threshold identifiers accepted by Config.SafetyThreshold.
// They map onto the harm-block levels of the generation backend.
const (
	SafetyBlockNone           = "block_none"
	SafetyBlockOnlyHigh       = "block_only_high"
	SafetyBlockMediumAndAbove = "block_medium_and_above"
	SafetyBlockLowAndAbove    = "block_low_and_above"
)

// Config holds configuration for AI service providers.
// Everything here is fixed startup configuration; none of it varies per call.
type Config struct {
	// APIKey is the credential for the generation/embedding service.
	// Required; a missing key is a configuration error, not a runtime one.
	APIKey string

	// GenerationModel is the model identifier used for text generation.
	// Example: "gemini-1.5-flash"
	GenerationModel string

	// EmbeddingModel is the model identifier used for text embeddings.
	// Example: "text-embedding-004"
	EmbeddingModel string

	// Temperature controls generation randomness. Range [0, 2].
	// Default: 0.2
	Temperature float64

	// MaxTokens bounds the length of generated completions.
	// Default: 1024
	MaxTokens int

	// SafetyThreshold selects the harm-block level for generation.
	// One of the Safety* constants. Default: SafetyBlockOnlyHigh.
	SafetyThreshold string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithAPIKey sets the provider credential.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithGenerationModel sets the generation model identifier.
func WithGenerationModel(model string) ConfigOption {
	return func(c *Config) {
		c.GenerationModel = model
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithTemperature sets the generation temperature.
func WithTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

// WithMaxTokens sets the completion length bound.
func WithMaxTokens(maxTokens int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = maxTokens
	}
}

// WithSafetyThreshold sets the harm-block level.
func WithSafetyThreshold(threshold string) ConfigOption {
	return func(c *Config) {
		c.SafetyThreshold = threshold
	}
}

// DefaultConfig returns a Config with sensible defaults.
// The APIKey has no default and must be supplied.
func DefaultConfig() *Config {
	return &Config{
		GenerationModel: "gemini-1.5-flash",
		EmbeddingModel:  "text-embedding-004",
		Temperature:     0.2,
		MaxTokens:       1024,
		SafetyThreshold: SafetyBlockOnlyHigh,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := ai.NewConfig(
//	    ai.WithAPIKey(os.Getenv("GEMINI_API_KEY")),
//	    ai.WithGenerationModel("gemini-1.5-pro"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks that the configuration is valid and complete.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("ai config: APIKey is required")
	}
	if c.GenerationModel == "" {
		return errors.New("ai config: GenerationModel is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.MaxTokens < 1 {
		return errors.New("ai config: MaxTokens must be positive")
	}
	switch c.SafetyThreshold {
	case SafetyBlockNone, SafetyBlockOnlyHigh, SafetyBlockMediumAndAbove, SafetyBlockLowAndAbove:
	default:
		return errors.New("ai config: unknown SafetyThreshold")
	}
	return nil
}
