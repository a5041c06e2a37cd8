package entity

import (
	"time"

	"github.com/google/uuid"
)

type AuthTokenType string

const (
	TokenTypeEmailVerification AuthTokenType = "email_verification"
	TokenTypePasswordReset     AuthTokenType = "password_reset"
)

// AuthToken is a one-shot random token sent by email for account
// verification or password reset.
type AuthToken struct {
	BaseSimple
	UserID    uuid.UUID     `db:"user_id"`
	Token     string        `db:"token"`
	TokenType AuthTokenType `db:"token_type"`
	ExpiresAt time.Time     `db:"expires_at"`
	IsUsed    bool          `db:"is_used"`
}
