package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is the revocation side-channel record for one issued JWT. ID is
// the short identifier derived from the transport cookie value, not the
// token itself. IsRevoked only ever transitions false -> true; rows are
// deleted exclusively by the age-based purge of already-revoked records.
type Session struct {
	ID         string     `db:"id"`
	UserID     uuid.UUID  `db:"user_id"`
	CreatedAt  time.Time  `db:"created_at"`
	LastUsedAt time.Time  `db:"last_used_at"`
	UserAgent  *string    `db:"user_agent"`
	IPAddress  *string    `db:"ip_address"`
	IsRevoked  bool       `db:"is_revoked"`
}
