package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ContentFingerprint normalizes and hashes a piece of content for
// cross-provider dedup: case-folded, whitespace-trimmed title and source.
func ContentFingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
