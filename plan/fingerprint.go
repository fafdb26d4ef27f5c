package plan

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives the deterministic cache key for a sub-query text:
// case-folded, whitespace-collapsed, then hashed. Identical text always
// yields an identical key, so the key is safe for both reads and idempotent
// writes against a shared cache.
func Fingerprint(text string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := sha256.Sum256([]byte(norm))
	return "sq:" + hex.EncodeToString(sum[:])
}
