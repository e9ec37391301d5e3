package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// FingerprintEntries computes a deterministic 64-bit digest over the ordered
// entry identifiers and contents of a corpus. Two builds over identical data
// produce identical fingerprints, so callers can tell whether a refresh
// actually changed anything.
func FingerprintEntries(entries []CorpusEntry) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	for i := range entries {
		h.Write([]byte(entries[i].ID))
		h.Write([]byte{0})
		h.Write([]byte(entries[i].Content))
		h.Write([]byte{0})
	}
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}
