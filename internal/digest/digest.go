// Package digest implements the fixed 256-bit password digest function
// used to authenticate users. It is a plain SHA-256 hex digest, not a
// salted/adaptive hash: the invariant that matters here is equality of
// two 256-bit digests, matching how the reference C implementation's
// sha256_hash computes it.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex-encoded SHA-256 digest of password.
func Hash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Equal reports whether password hashes to the stored digest.
func Equal(password, storedHash string) bool {
	return Hash(password) == storedHash
}
