package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	manager, err := NewManager(Config{
		Secret: "test-secret-do-not-use",
		Issuer: "storefront-auth",
		TTL:    ttl,
	})
	require.NoError(t, err)
	return manager
}

func TestNewManagerValidatesConfig(t *testing.T) {
	_, err := NewManager(Config{Secret: "", TTL: time.Hour})
	require.Error(t, err)

	_, err = NewManager(Config{Secret: "secret", TTL: 0})
	require.Error(t, err)
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	manager := newTestManager(t, time.Hour)

	issued, err := manager.Issue(Claims{
		Email:         "jordan@example.com",
		Name:          "Jordan",
		Role:          "customer",
		EmailVerified: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "a9f51f4e-6a1b-4a88-9c3f-1f2e3d4c5b6a",
		},
	})
	require.NoError(t, err)

	claims, err := manager.Parse(issued)
	require.NoError(t, err)
	require.Equal(t, "jordan@example.com", claims.Email)
	require.Equal(t, "customer", claims.Role)
	require.True(t, claims.EmailVerified)
	require.Equal(t, "a9f51f4e-6a1b-4a88-9c3f-1f2e3d4c5b6a", claims.Subject)
	require.Equal(t, "storefront-auth", claims.Issuer)
	require.NotZero(t, claims.LastValidated, "issuance stamps the validation time")
}

func TestParseRejectsWrongSecret(t *testing.T) {
	manager := newTestManager(t, time.Hour)
	other, err := NewManager(Config{Secret: "different-secret", Issuer: "storefront-auth", TTL: time.Hour})
	require.NoError(t, err)

	issued, err := other.Issue(Claims{Email: "jordan@example.com"})
	require.NoError(t, err)

	_, err = manager.Parse(issued)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	manager := newTestManager(t, time.Hour)
	other, err := NewManager(Config{Secret: "test-secret-do-not-use", Issuer: "someone-else", TTL: time.Hour})
	require.NoError(t, err)

	issued, err := other.Issue(Claims{Email: "jordan@example.com"})
	require.NoError(t, err)

	_, err = manager.Parse(issued)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	manager := newTestManager(t, time.Millisecond)

	issued, err := manager.Issue(Claims{Email: "jordan@example.com"})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = manager.Parse(issued)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	manager := newTestManager(t, time.Hour)

	_, err := manager.Parse("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = manager.Parse("")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuePreservesExplicitLastValidated(t *testing.T) {
	manager := newTestManager(t, time.Hour)
	stamped := time.Now().Add(-30 * time.Minute).Unix()

	issued, err := manager.Issue(Claims{Email: "jordan@example.com", LastValidated: stamped})
	require.NoError(t, err)

	claims, err := manager.Parse(issued)
	require.NoError(t, err)
	require.Equal(t, stamped, claims.LastValidated)
}
