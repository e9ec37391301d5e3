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

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/tramovia/rutabot/core"
)

// Field order: ID, Role, Content, Timestamp (as Unix micros).

func sizeChatMessage(msg *core.ChatMessage) int {
	return varint.Uint64.Size(msg.ID) +
		varint.Int.Size(int(msg.Role)) +
		ord.String.Size(msg.Content) +
		raw.Int64.Size(msg.Timestamp.UnixMicro())
}

// MarshalChatMessage serializes a ChatMessage to bytes.
func MarshalChatMessage(msg *core.ChatMessage) []byte {
	buf := make([]byte, sizeChatMessage(msg))
	n := varint.Uint64.Marshal(msg.ID, buf)
	n += varint.Int.Marshal(int(msg.Role), buf[n:])
	n += ord.String.Marshal(msg.Content, buf[n:])
	raw.Int64.Marshal(msg.Timestamp.UnixMicro(), buf[n:])
	return buf
}

// UnmarshalChatMessage deserializes a ChatMessage from bytes.
func UnmarshalChatMessage(data []byte) (*core.ChatMessage, error) {
	var msg core.ChatMessage

	id, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	msg.ID = id

	role, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: role: %w", ErrSerializationFailed, err)
	}
	msg.Role = core.Role(role)
	n += m

	content, m, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: content: %w", ErrSerializationFailed, err)
	}
	msg.Content = content
	n += m

	micros, _, err := raw.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp: %w", ErrSerializationFailed, err)
	}
	msg.Timestamp = time.UnixMicro(micros).UTC()

	return &msg, nil
}
