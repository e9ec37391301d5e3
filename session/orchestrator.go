// Package session wraps the conversational engine with the client-facing
// lifecycle: the visible transcript, loading and error flags, and
// single-flight initialization.
//
// The orchestrator owns the transcript. The engine never stores history; it
// only sees what SendMessage passes it per call. When a transcript store is
// configured, the transcript additionally survives process restarts.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tramovia/rutabot/core"
	"github.com/tramovia/rutabot/engine"
	"github.com/tramovia/rutabot/storage"
)

// User-visible error strings, surfaced through Err().
const (
	errTextInitFailed     = "No se pudo inicializar el asistente. Intenta de nuevo."
	errTextNotInitialized = "El asistente aún no está inicializado."
	errTextRefreshFailed  = "No se pudo actualizar la información."
	errTextAnswerFailed   = "Ocurrió un error al responder."
)

// Orchestrator is the client-facing session wrapper around an Engine.
type Orchestrator struct {
	engine  *engine.Engine
	store   storage.TranscriptStore
	session string
	autoIni bool
	logger  *slog.Logger

	mu          sync.Mutex
	messages    []core.ChatMessage
	nextID      uint64
	loading     bool
	initialized bool
	inFlight    bool
	lastErr     string
	stats       core.CorpusStats
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithTranscriptStore persists the transcript under the given session id.
// Default is an in-memory transcript only.
func WithTranscriptStore(store storage.TranscriptStore, sessionID string) Option {
	return func(o *Orchestrator) error {
		if store == nil {
			return ErrStoreRequired
		}
		if sessionID == "" {
			return ErrEmptySessionID
		}
		o.store = store
		o.session = sessionID
		return nil
	}
}

// WithAutoInitialize makes Start trigger Initialize when the session has not
// been initialized yet. Default is manual initialization.
func WithAutoInitialize() Option {
	return func(o *Orchestrator) error {
		o.autoIni = true
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates a new session orchestrator.
func NewOrchestrator(eng *engine.Engine, opts ...Option) (*Orchestrator, error) {
	if eng == nil {
		return nil, ErrEngineRequired
	}

	o := &Orchestrator{
		engine:   eng,
		messages: []core.ChatMessage{},
		nextID:   1,
		logger:   slog.Default().With("component", "session"),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// Start makes the session ready for use. With auto-initialization enabled it
// runs Initialize once; otherwise it is a no-op.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	auto := o.autoIni && !o.initialized
	o.mu.Unlock()

	if !auto {
		return nil
	}
	return o.Initialize(ctx)
}

// Initialize builds the engine's corpus and seeds the transcript with the
// welcome message. It is single-flight: a call that races with another
// in-flight initialization returns immediately without doing anything, and a
// call after a successful initialization is a no-op.
//
// On failure the transcript is left untouched and Err() carries a
// user-visible message.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.mu.Lock()
	if o.initialized || o.inFlight {
		o.mu.Unlock()
		return nil
	}
	o.inFlight = true
	o.loading = true
	o.mu.Unlock()

	err := o.engine.Initialize(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false
	o.loading = false

	if err != nil {
		o.logger.Error("initialization failed", "err", err)
		o.lastErr = errTextInitFailed
		return err
	}

	o.initialized = true
	o.lastErr = ""
	o.stats = o.engine.Stats()
	o.seedTranscriptLocked(ctx)

	return nil
}

// seedTranscriptLocked populates the transcript after a successful
// initialization: the persisted transcript when one exists, the welcome
// message otherwise.
func (o *Orchestrator) seedTranscriptLocked(ctx context.Context) {
	if o.store != nil {
		persisted, err := o.store.List(ctx, o.session)
		if err != nil {
			o.logger.Warn("transcript restore failed", "err", err)
		} else if len(persisted) > 0 {
			o.messages = persisted
			o.nextID = persisted[len(persisted)-1].ID + 1
			return
		}
	}

	o.appendLocked(ctx, core.RoleAssistant, o.engine.WelcomeMessage())
}

// SendMessage appends the user's message, answers it through the engine and
// appends the assistant's reply. The user message is appended before the
// engine is called, so the transcript never loses the question.
//
// Calling it before Initialize succeeds leaves the transcript untouched,
// sets Err() and returns ErrNotInitialized.
func (o *Orchestrator) SendMessage(ctx context.Context, text string) error {
	o.mu.Lock()
	if !o.initialized {
		o.lastErr = errTextNotInitialized
		o.mu.Unlock()
		return ErrNotInitialized
	}

	o.appendLocked(ctx, core.RoleUser, text)
	history := make([]core.ChatMessage, len(o.messages))
	copy(history, o.messages)
	o.loading = true
	o.mu.Unlock()

	answer, err := o.engine.Answer(ctx, text, history)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.loading = false

	if err != nil {
		o.logger.Error("answer failed", "err", err)
		o.lastErr = errTextAnswerFailed
		o.appendLocked(ctx, core.RoleAssistant, engine.ApologyText)
		return err
	}

	o.lastErr = ""
	o.appendLocked(ctx, core.RoleAssistant, answer.Message)

	return nil
}

// ClearChat resets the transcript: to a single welcome message once
// initialized, to an empty transcript otherwise.
func (o *Orchestrator) ClearChat(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.store != nil {
		if err := o.store.Clear(ctx, o.session); err != nil {
			o.logger.Warn("transcript clear failed", "err", err)
		}
	}

	o.messages = []core.ChatMessage{}
	o.nextID = 1

	if o.initialized {
		o.appendLocked(ctx, core.RoleAssistant, o.engine.WelcomeMessage())
	}
}

// RefreshKnowledge rebuilds the engine's corpus and refreshes the cached
// stats snapshot. The transcript is not affected.
func (o *Orchestrator) RefreshKnowledge(ctx context.Context) error {
	o.mu.Lock()
	if !o.initialized {
		o.lastErr = errTextNotInitialized
		o.mu.Unlock()
		return ErrNotInitialized
	}
	o.loading = true
	o.mu.Unlock()

	err := o.engine.Refresh(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.loading = false

	if err != nil {
		o.logger.Error("refresh failed", "err", err)
		o.lastErr = errTextRefreshFailed
		return err
	}

	o.lastErr = ""
	o.stats = o.engine.Stats()

	return nil
}

// Messages returns a copy of the visible transcript.
func (o *Orchestrator) Messages() []core.ChatMessage {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]core.ChatMessage, len(o.messages))
	copy(out, o.messages)
	return out
}

// IsLoading reports whether an operation is in flight.
func (o *Orchestrator) IsLoading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loading
}

// IsInitialized reports whether Initialize has succeeded.
func (o *Orchestrator) IsInitialized() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.initialized
}

// Err returns the user-visible error of the last failed operation, or "".
func (o *Orchestrator) Err() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Stats returns the corpus stats captured at the last initialize or refresh.
func (o *Orchestrator) Stats() core.CorpusStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

// Close tears the session down and discards the engine's corpus.
// The transcript store, if any, is owned by the caller and stays open.
func (o *Orchestrator) Close() {
	o.engine.Cleanup()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.initialized = false
}

// appendLocked appends a message with the next sequential ID and persists it
// when a store is configured. Persistence is best effort: a store failure is
// logged and the in-memory transcript stays authoritative.
func (o *Orchestrator) appendLocked(ctx context.Context, role core.Role, content string) {
	msg := core.ChatMessage{
		ID:        o.nextID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	o.nextID++
	o.messages = append(o.messages, msg)

	if o.store != nil {
		if _, err := o.store.Append(ctx, o.session, msg); err != nil {
			o.logger.Warn("transcript persist failed", "id", msg.ID, "err", err)
		}
	}
}
