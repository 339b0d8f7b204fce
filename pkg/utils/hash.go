package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// HashKey returns a hex blake2b-256 digest of s. Used to derive Redis keys from
// backend session cookies without storing the cookie value itself.
func HashKey(s string) string {
	sum := blake2b.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
