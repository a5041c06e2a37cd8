// Package token issues and parses the stateless session JWT. Revocation is
// not handled here: the token carries user claims and a last-validated
// timestamp, while the session registry decides whether a given session
// identifier is still trusted.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims are the session claims embedded in the JWT. Subject carries the
// user id.
type Claims struct {
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
	// LastValidated is the unix timestamp (seconds) of the last claim
	// refresh against the user store. Drives the periodic reload.
	LastValidated int64 `json:"last_validated"`
	jwt.RegisteredClaims
}

type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Manager signs and verifies session tokens with HS256.
type Manager struct {
	config Config
}

func NewManager(config Config) (*Manager, error) {
	if config.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if config.TTL <= 0 {
		return nil, errors.New("jwt ttl must be positive")
	}

	return &Manager{config: config}, nil
}

// Issue signs a new token for the given claims. ExpiresAt, IssuedAt, and
// Issuer are set here; everything else comes from the caller.
func (m *Manager) Issue(claims Claims) (string, error) {
	now := time.Now()

	claims.RegisteredClaims.Issuer = m.config.Issuer
	claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)
	claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(now.Add(m.config.TTL))
	if claims.LastValidated == 0 {
		claims.LastValidated = now.Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.Secret))
}

// Parse verifies the signature and registered claims of a compact token.
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.Secret), nil
	},
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// TTL exposes the configured token lifetime (used for cookie max age).
func (m *Manager) TTL() time.Duration {
	return m.config.TTL
}
