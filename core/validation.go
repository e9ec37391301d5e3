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


package core

import (
	"fmt"
	"time"
)

// ValidateChatMessage validates a ChatMessage according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - Role must be valid (User or Assistant)
//   - Timestamp must not be in the future
//
// NOT validated:
//   - ID (0 is valid before a session assigns one)
func ValidateChatMessage(msg *ChatMessage) error {
	if msg == nil {
		return fmt.Errorf("chat message is nil")
	}

	if msg.Content == "" {
		return ErrEmptyContent
	}

	if err := ValidateRole(msg.Role); err != nil {
		return err
	}

	if !IsValidTimestamp(msg.Timestamp) {
		return ErrInvalidTimestamp
	}

	return nil
}

// ValidateEntry validates a CorpusEntry according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Content must not be empty
//   - Metadata must be present
//
// NOT validated:
//   - Vector (nil is valid for entries whose embedding failed)
func ValidateEntry(entry *CorpusEntry) error {
	if entry == nil {
		return fmt.Errorf("corpus entry is nil")
	}

	if entry.ID == "" {
		return ErrEmptyEntryID
	}

	if entry.Content == "" {
		return ErrEmptyContent
	}

	if entry.Metadata == nil {
		return ErrMissingMetadata
	}

	return nil
}

// ValidateRole validates that a Role has a valid value.
func ValidateRole(role Role) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: value %d", ErrInvalidRole, role)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
