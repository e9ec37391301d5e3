package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	transcriptPrefix = "tscript"
	transcriptIDSeq  = "tscriptseq"
)

// makeMessageKey generates a composite key for one transcript message.
// Format: prefix:sessionID:id, with the ID written in BigEndian so that
// lexicographic iteration order equals ascending message ID order.
func makeMessageKey(sessionID string, id uint64) []byte {
	prefix := fmt.Sprintf("%s:%s:", transcriptPrefix, sessionID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], id)
	return buf
}

// makeSessionPrefix generates the iteration prefix for one session.
func makeSessionPrefix(sessionID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", transcriptPrefix, sessionID))
}
