package repository

import (
	"crypto/sha256"
	"encoding/hex"
)

// Length of the derived item id in hex characters.
const idLength = 32

// MakeID derives a stable item id from the canonical source ref. The
// id is the truncated SHA-256 of the ref, so it is deterministic
// across processes and platforms, unlike language-level string hashes.
func MakeID(sourceRef string) string {
	sum := sha256.Sum256([]byte(sourceRef))
	return hex.EncodeToString(sum[:])[:idLength]
}
