package coffee

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewID returns an opaque identifier with a readable prefix, e.g. "lot-9f2c...".
// Store implementations use this when assigning ids on insert.
func NewID(prefix string) string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms; keep the signature simple.
		panic(fmt.Sprintf("id generation: %v", err))
	}
	return prefix + "-" + hex.EncodeToString(b[:])
}
