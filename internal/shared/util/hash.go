package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the hex sha256 of data. Archived batches are keyed by it
// so a re-fetch with identical content is recognised.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
