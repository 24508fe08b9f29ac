package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// ShortHash returns the first 16 hex chars of the SHA-256 of s.
// Used to refer to binary fingerprints in logs and hook payloads.
func ShortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
