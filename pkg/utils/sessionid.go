package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// SessionIDLength is the fixed length of a derived session identifier.
const SessionIDLength = 16

// DeriveSessionID extracts a short, stable lookup key from the raw session
// cookie value. The key indexes revocation records in the sessions table; it
// is NOT a credential, and it is never decoded or verified here. The cookie
// value itself remains the security boundary.
//
// The key is a truncated SHA-256 of the whole value rather than a raw prefix:
// signed compact tokens all start with the same base64 header, so a prefix
// would collide across every session.
//
// Returns "" when no cookie value is present.
func DeriveSessionID(cookieValue string) string {
	if cookieValue == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(cookieValue))
	return hex.EncodeToString(sum[:])[:SessionIDLength]
}
