package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/tramovia/rutabot/core"
	"github.com/tramovia/rutabot/storage"
)

// TranscriptStore implements storage.TranscriptStore for BadgerDB.
type TranscriptStore struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.TranscriptStore = (*TranscriptStore)(nil)

// NewTranscriptStore creates a transcript store on top of an open backend.
func NewTranscriptStore(backend *Backend) (storage.TranscriptStore, error) {
	idSeq, err := backend.GetSequence(transcriptIDSeq)
	if err != nil {
		return nil, err
	}

	return &TranscriptStore{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence. The backend stays open; it may be shared.
func (s *TranscriptStore) Close() error {
	return s.idSeq.Release()
}

// Append stores a message at the end of a session's transcript.
func (s *TranscriptStore) Append(ctx context.Context, sessionID string, msg core.ChatMessage) (core.ChatMessage, error) {
	if sessionID == "" {
		return core.ChatMessage{}, storage.ErrEmptySessionID
	}

	if msg.ID == 0 {
		id, err := s.nextID()
		if err != nil {
			return core.ChatMessage{}, err
		}
		msg.ID = id
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeMessageKey(sessionID, msg.ID)
		if err := tx.Set(key, storage.MarshalChatMessage(&msg)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return core.ChatMessage{}, err
	}

	return msg, nil
}

// List returns a session's transcript ordered by ascending message ID.
func (s *TranscriptStore) List(ctx context.Context, sessionID string) ([]core.ChatMessage, error) {
	if sessionID == "" {
		return nil, storage.ErrEmptySessionID
	}

	messages := []core.ChatMessage{}
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeSessionPrefix(sessionID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				msg, err := storage.UnmarshalChatMessage(val)
				if err != nil {
					return err
				}
				messages = append(messages, *msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// Clear removes every message of a session's transcript.
func (s *TranscriptStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return storage.ErrEmptySessionID
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeSessionPrefix(sessionID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)

		var keys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// nextID draws the next message ID from the sequence, skipping the 0 a fresh
// BadgerDB sequence yields on its first call.
func (s *TranscriptStore) nextID() (uint64, error) {
	id, err := s.idSeq.Next()
	if err != nil {
		return 0, err
	}
	if id == 0 {
		id, err = s.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return id, nil
}
