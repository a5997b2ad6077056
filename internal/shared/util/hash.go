package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey returns a stable hex digest of s, safe to store in place of a secret.
func HashUserKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
