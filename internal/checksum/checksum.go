// Package checksum fingerprints published content so unchanged files can be
// left in place between runs.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matches reports whether data hashes to sum. An empty sum never matches.
func Matches(sum string, data []byte) bool {
	return sum != "" && sum == Sum(data)
}
