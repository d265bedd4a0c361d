// Package checksum produces content hashes used as note etags and task IDs.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Key joins parts with '|' and hashes the result. Used for content-derived
// identifiers that must stay stable as long as the parts do.
func Key(parts ...string) string {
	return Sum([]byte(strings.Join(parts, "|")))
}
