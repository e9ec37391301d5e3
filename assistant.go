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

// Package rutabot wires the retrieval and answering pipeline into a single
// assistant: a PostgreSQL data source, the Gemini provider, the corpus
// builder, the conversational engine and a session orchestrator.
package rutabot

import (
	"context"
	"log/slog"

	"github.com/tramovia/rutabot/ai"
	"github.com/tramovia/rutabot/ai/googleai"
	"github.com/tramovia/rutabot/config"
	"github.com/tramovia/rutabot/corpus"
	"github.com/tramovia/rutabot/datasource"
	"github.com/tramovia/rutabot/datasource/postgres"
	"github.com/tramovia/rutabot/embedding"
	"github.com/tramovia/rutabot/engine"
	"github.com/tramovia/rutabot/session"
	"github.com/tramovia/rutabot/storage"
	badgerstore "github.com/tramovia/rutabot/storage/badger"
)

// Assistant bundles the full pipeline behind one constructor and one Close.
type Assistant struct {
	source   datasource.Source
	provider ai.AIProvider
	builder  *corpus.Builder
	backend  *badgerstore.Backend
	store    storage.TranscriptStore
	session  *session.Orchestrator
	logger   *slog.Logger
}

// AssistantOption configures an Assistant.
type AssistantOption func(*assistantOptions)

type assistantOptions struct {
	aiConfig       *ai.Config
	institutionID  string
	topK           int
	autoInitialize bool
	transcriptPath string
	sessionID      string
	source         datasource.Source
	provider       ai.AIProvider
}

// WithAIConfig sets the Gemini provider configuration.
func WithAIConfig(cfg *ai.Config) AssistantOption {
	return func(o *assistantOptions) {
		o.aiConfig = cfg
	}
}

// WithInstitution scopes the assistant's corpus to one institution.
func WithInstitution(institutionID string) AssistantOption {
	return func(o *assistantOptions) {
		o.institutionID = institutionID
	}
}

// WithTopK sets the retrieval depth per question.
func WithTopK(topK int) AssistantOption {
	return func(o *assistantOptions) {
		o.topK = topK
	}
}

// WithAutoInitialize builds the corpus as part of session start instead of
// waiting for an explicit Initialize call.
func WithAutoInitialize() AssistantOption {
	return func(o *assistantOptions) {
		o.autoInitialize = true
	}
}

// WithTranscripts persists chat transcripts in a BadgerDB directory under the
// given session id.
func WithTranscripts(path, sessionID string) AssistantOption {
	return func(o *assistantOptions) {
		o.transcriptPath = path
		o.sessionID = sessionID
	}
}

// WithSource replaces the PostgreSQL data source, e.g. with a mock.
// The dsn argument of NewAssistant is ignored when set.
func WithSource(source datasource.Source) AssistantOption {
	return func(o *assistantOptions) {
		o.source = source
	}
}

// WithProvider replaces the Gemini provider, e.g. with a mock.
func WithProvider(provider ai.AIProvider) AssistantOption {
	return func(o *assistantOptions) {
		o.provider = provider
	}
}

// NewAssistant builds the full pipeline against a PostgreSQL DSN.
func NewAssistant(ctx context.Context, dsn string, opts ...AssistantOption) (*Assistant, error) {
	options := &assistantOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	// Data source
	source := options.source
	if source == nil {
		src, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		source = src
	}

	// AI provider
	provider := options.provider
	if provider == nil {
		p, err := googleai.NewProvider(ctx, options.aiConfig)
		if err != nil {
			source.Close()
			return nil, err
		}
		provider = p
	}

	embedGen, err := embedding.NewGenerator(provider.Embedder())
	if err != nil {
		provider.Close()
		source.Close()
		return nil, err
	}

	builder, err := corpus.NewBuilder(source, embedGen)
	if err != nil {
		provider.Close()
		source.Close()
		return nil, err
	}

	engineOpts := []engine.Option{engine.WithInstitution(options.institutionID)}
	if options.topK > 0 {
		engineOpts = append(engineOpts, engine.WithTopK(options.topK))
	}

	eng, err := engine.NewEngine(builder, embedGen, provider.Generator(), engineOpts...)
	if err != nil {
		builder.Release()
		provider.Close()
		source.Close()
		return nil, err
	}

	// Transcript persistence
	var (
		backend *badgerstore.Backend
		store   storage.TranscriptStore
	)
	sessionOpts := []session.Option{}
	if options.autoInitialize {
		sessionOpts = append(sessionOpts, session.WithAutoInitialize())
	}
	if options.transcriptPath != "" {
		backend, err = badgerstore.OpenBackend(options.transcriptPath, false)
		if err != nil {
			builder.Release()
			provider.Close()
			source.Close()
			return nil, err
		}
		store, err = badgerstore.NewTranscriptStore(backend)
		if err != nil {
			backend.Close()
			builder.Release()
			provider.Close()
			source.Close()
			return nil, err
		}
		sessionOpts = append(sessionOpts, session.WithTranscriptStore(store, options.sessionID))
	}

	orch, err := session.NewOrchestrator(eng, sessionOpts...)
	if err != nil {
		if store != nil {
			store.Close()
		}
		if backend != nil {
			backend.Close()
		}
		builder.Release()
		provider.Close()
		source.Close()
		return nil, err
	}

	return &Assistant{
		source:   source,
		provider: provider,
		builder:  builder,
		backend:  backend,
		store:    store,
		session:  orch,
		logger:   slog.Default(),
	}, nil
}

// NewAssistantFromConfig builds an assistant from the application config.
// The config is validated first; a missing credential fails construction.
func NewAssistantFromConfig(ctx context.Context, cfg *config.AppConfig, opts ...AssistantOption) (*Assistant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	aiCfg := ai.NewConfig(
		ai.WithAPIKey(cfg.AI.APIKey()),
		ai.WithGenerationModel(cfg.AI.GenerationModel),
		ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
		ai.WithTemperature(cfg.AI.Temperature),
		ai.WithMaxTokens(cfg.AI.MaxTokens),
		ai.WithSafetyThreshold(cfg.AI.SafetyThreshold),
	)

	merged := []AssistantOption{
		WithAIConfig(aiCfg),
		WithInstitution(cfg.Session.InstitutionID),
		WithTopK(cfg.Session.TopK),
	}
	if cfg.Session.AutoInitialize {
		merged = append(merged, WithAutoInitialize())
	}
	if cfg.Session.TranscriptPath != "" {
		merged = append(merged, WithTranscripts(cfg.Session.TranscriptPath, cfg.Session.SessionID))
	}
	merged = append(merged, opts...)

	return NewAssistant(ctx, cfg.Database.ResolveDSN(), merged...)
}

// Session returns the client-facing session orchestrator.
func (a *Assistant) Session() *session.Orchestrator {
	return a.session
}

// Close tears down the session and every owned resource.
func (a *Assistant) Close() error {
	a.session.Close()
	a.builder.Release()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error("error closing transcript store", "err", err)
		}
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Error("error closing transcript backend", "err", err)
			return err
		}
	}

	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
		return err
	}

	if err := a.source.Close(); err != nil {
		a.logger.Error("error closing data source", "err", err)
		return err
	}
	return nil
}
