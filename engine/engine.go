// Package engine owns the corpus lifecycle and answers questions against it.
//
// An Engine is bound to at most one institution at construction. Its corpus
// is an immutable snapshot: Initialize and Refresh build a complete new slice
// and swap the reference, so Answer never observes a half-built corpus.
package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tramovia/rutabot/ai"
	"github.com/tramovia/rutabot/core"
	"github.com/tramovia/rutabot/corpus"
	"github.com/tramovia/rutabot/embedding"
	"github.com/tramovia/rutabot/rank"
)

// State is the lifecycle state of an Engine.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateRefreshing
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

const (
	defaultTopK              = 10
	defaultGenerationTimeout = 30 * time.Second
)

// Engine answers free-text questions grounded on the knowledge corpus.
type Engine struct {
	builder       *corpus.Builder
	embedder      *embedding.Generator
	generator     ai.Generator
	institutionID string
	topK          int
	genTimeout    time.Duration
	logger        *slog.Logger

	// buildMu serializes corpus builds. It is never held together with a
	// provider call under mu, so Stats and Answer stay responsive while a
	// build runs.
	buildMu sync.Mutex

	mu          sync.Mutex
	state       State
	entries     []core.CorpusEntry
	fingerprint uint64
}

// Option configures an Engine.
type Option func(*Engine) error

// WithInstitution binds the engine to one institution; the corpus is built
// scoped to it. Default is unscoped.
func WithInstitution(institutionID string) Option {
	return func(e *Engine) error {
		e.institutionID = institutionID
		return nil
	}
}

// WithTopK sets how many corpus entries are retrieved per question.
// Default is 10.
func WithTopK(topK int) Option {
	return func(e *Engine) error {
		if topK < 1 {
			return ErrInvalidTopK
		}
		e.topK = topK
		return nil
	}
}

// WithGenerationTimeout bounds each generation provider call.
// Default is 30s; zero disables the bound.
func WithGenerationTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		e.genTimeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a new conversational engine.
func NewEngine(builder *corpus.Builder, embedder *embedding.Generator, generator ai.Generator, opts ...Option) (*Engine, error) {
	if builder == nil {
		return nil, ErrBuilderRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	e := &Engine{
		builder:    builder,
		embedder:   embedder,
		generator:  generator,
		topK:       defaultTopK,
		genTimeout: defaultGenerationTimeout,
		logger:     slog.Default().With("component", "engine"),
		state:      StateUninitialized,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Initialize builds the corpus and transitions the engine to ready.
// Calling it on an engine that is already ready is a no-op; concurrent
// callers serialize and the late ones observe the ready corpus.
func (e *Engine) Initialize(ctx context.Context) error {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	e.mu.Lock()
	if e.state == StateReady {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	return e.rebuild(ctx, StateInitializing, StateUninitialized)
}

// Refresh rebuilds the corpus with the same scoping as Initialize and swaps
// it in atomically. The engine must already be ready; the previous corpus
// keeps serving answers until the swap.
func (e *Engine) Refresh(ctx context.Context) error {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	e.mu.Lock()
	if e.state != StateReady {
		e.mu.Unlock()
		return ErrNotReady
	}
	e.mu.Unlock()

	return e.rebuild(ctx, StateRefreshing, StateReady)
}

// rebuild runs one corpus build. The caller must hold buildMu; e.mu is taken
// only around state transitions so readers are not blocked for the duration
// of the build. On failure the previous corpus is kept and the state falls
// back to onFailure.
func (e *Engine) rebuild(ctx context.Context, during, onFailure State) error {
	e.mu.Lock()
	e.state = during
	e.mu.Unlock()

	entries, err := e.builder.Build(ctx, e.institutionID)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		e.state = onFailure
		e.logger.Error("corpus build failed", "state", during.String(), "err", err)
		return err
	}

	e.entries = entries
	e.fingerprint = core.FingerprintEntries(entries)
	e.state = StateReady

	return nil
}

// Answer answers a question grounded on the current corpus. The engine
// initializes itself first if it has never been initialized.
//
// A generation provider failure is not an error: the caller gets ApologyText
// with no sources. Only context cancellation and a failed implicit
// initialization surface as errors.
func (e *Engine) Answer(ctx context.Context, question string, history []core.ChatMessage) (core.Answer, error) {
	if err := e.Initialize(ctx); err != nil {
		return core.Answer{}, err
	}

	e.mu.Lock()
	snapshot := e.entries
	e.mu.Unlock()

	queryVector, err := e.embedder.Embed(ctx, question)
	if err != nil {
		if ctx.Err() != nil {
			return core.Answer{}, err
		}
		e.logger.Error("question embedding failed", "err", err)
		return core.Answer{Message: ApologyText, Sources: []core.Source{}}, nil
	}

	matches := rank.Top(queryVector, snapshot, e.topK)

	contextBlocks := make([]string, len(matches))
	sources := make([]core.Source, len(matches))
	for i, m := range matches {
		contextBlocks[i] = m.Entry.Content
		sources[i] = core.Source{
			ID:       m.Entry.ID,
			Type:     m.Entry.Metadata.EntryType(),
			Content:  m.Entry.Content,
			Metadata: m.Entry.Metadata,
		}
	}

	prompt := buildPrompt(question, contextBlocks, history)

	genCtx := ctx
	if e.genTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, e.genTimeout)
		defer cancel()
	}

	text, err := e.generator.GenerateText(genCtx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return core.Answer{}, err
		}
		e.logger.Error("generation failed", "err", err)
		return core.Answer{Message: ApologyText, Sources: []core.Source{}}, nil
	}

	return core.Answer{Message: strings.TrimSpace(text), Sources: sources}, nil
}

// WelcomeMessage returns the fixed onboarding message. It never touches the
// corpus or the providers, so it is usable before Initialize.
func (e *Engine) WelcomeMessage() string {
	return WelcomeText
}

// Stats returns a snapshot of the current corpus.
func (e *Engine) Stats() core.CorpusStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := core.CorpusStats{
		Total:       len(e.entries),
		ByType:      make(map[core.EntryType]int),
		Ready:       e.state == StateReady,
		Fingerprint: e.fingerprint,
	}

	for i := range e.entries {
		stats.ByType[e.entries[i].Metadata.EntryType()]++
		if !e.entries[i].Embedded() {
			stats.Unembedded++
		}
	}

	return stats
}

// InstitutionID returns the institution the engine is scoped to, or "".
func (e *Engine) InstitutionID() string {
	return e.institutionID
}

// Cleanup discards the corpus and resets the engine to uninitialized.
// It waits for any in-flight build so the build cannot resurrect entries
// after the reset.
func (e *Engine) Cleanup() {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.entries = nil
	e.fingerprint = 0
	e.state = StateUninitialized
}
