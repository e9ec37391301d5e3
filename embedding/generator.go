// Package embedding wraps the embedding provider with the retry and timeout
// policy used during corpus construction and question answering.
//
// A persistently failing provider yields ErrUnavailable instead of a
// fabricated vector: degraded entries are kept unembedded and excluded from
// ranking rather than polluting the similarity space with noise.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tramovia/rutabot/ai"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
	defaultCallTimeout = 30 * time.Second
)

// Generator produces embeddings for arbitrary text through an ai.Embedder.
type Generator struct {
	embedder    ai.Embedder
	maxAttempts int
	baseDelay   time.Duration
	callTimeout time.Duration
	logger      *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator) error

// WithRetry sets the retry policy for provider calls.
// Default is 3 attempts with a 500ms base delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(g *Generator) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		g.maxAttempts = maxAttempts
		g.baseDelay = baseDelay
		return nil
	}
}

// WithCallTimeout bounds every individual provider call.
// Default is 30s; zero disables the bound.
func WithCallTimeout(timeout time.Duration) Option {
	return func(g *Generator) error {
		g.callTimeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
		return nil
	}
}

// NewGenerator creates a new embedding generator.
func NewGenerator(embedder ai.Embedder, opts ...Option) (*Generator, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	g := &Generator{
		embedder:    embedder,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		callTimeout: defaultCallTimeout,
		logger:      slog.Default().With("component", "embedding-generator"),
	}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// Embed generates a vector for the given text.
// Provider failures are retried with exponential backoff; if the provider
// keeps failing, the error wraps ErrUnavailable and no vector is returned.
func (g *Generator) Embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32

	err := retryWithBackoff(ctx, func() error {
		callCtx := ctx
		if g.callTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.callTimeout)
			defer cancel()
		}

		v, err := g.embedder.EmbedText(callCtx, text)
		if err != nil {
			return err
		}
		vector = v
		return nil
	}, g.maxAttempts, g.baseDelay)

	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		g.logger.Warn("embedding failed after retries", "attempts", g.maxAttempts, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return vector, nil
}
