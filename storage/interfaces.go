package storage

import (
	"context"

	"github.com/tramovia/rutabot/core"
)

// TranscriptStore persists chat transcripts across process restarts, keyed by
// session identifier. Implementations must be safe for concurrent use.
//
// The corpus itself is deliberately not persisted; it is rebuilt from the
// data source on every engine initialization.
type TranscriptStore interface {
	// Append stores a message at the end of a session's transcript.
	// A message with ID 0 gets a new sequential ID assigned by the store.
	// Returns the message with its final ID populated.
	Append(ctx context.Context, sessionID string, msg core.ChatMessage) (core.ChatMessage, error)

	// List returns a session's transcript ordered by ascending message ID.
	// An unknown session yields an empty slice, not an error.
	List(ctx context.Context, sessionID string) ([]core.ChatMessage, error)

	// Clear removes every message of a session's transcript.
	Clear(ctx context.Context, sessionID string) error

	// Close closes the store and releases resources.
	Close() error
}
