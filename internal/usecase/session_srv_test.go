package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSessionService(repo *fakeSessionRepo) SessionService {
	registry := NewSessionRegistry(repo, time.Second, zap.NewNop())
	return NewSessionService(registry, zap.NewNop())
}

func TestListMySessionsHidesRevokedAndMarksCurrent(t *testing.T) {
	repo := newFakeSessionRepo()
	service := newTestSessionService(repo)
	registry := NewSessionRegistry(repo, time.Second, zap.NewNop())
	ctx := context.Background()
	userID := uuid.New()

	chromeUA := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	registry.Record(ctx, "current000000000", userID, &chromeUA, nil)
	registry.Record(ctx, "laptop0000000000", userID, nil, nil)
	registry.Record(ctx, "revoked000000000", userID, nil, nil)
	_, err := registry.Revoke(ctx, "revoked000000000", userID)
	require.NoError(t, err)

	sessions, err := service.ListMySessions(ctx, userID, "current000000000")
	require.NoError(t, err)
	require.Len(t, sessions, 2, "revoked sessions are hidden")

	for _, session := range sessions {
		require.NotEqual(t, "revoked000000000", session.ID)
		require.Equal(t, session.ID == "current000000000", session.IsCurrentSession)
	}
}

func TestListMySessionsClassifiesDevices(t *testing.T) {
	repo := newFakeSessionRepo()
	service := newTestSessionService(repo)
	registry := NewSessionRegistry(repo, time.Second, zap.NewNop())
	ctx := context.Background()
	userID := uuid.New()

	chromeUA := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	registry.Record(ctx, "windowslaptop000", userID, &chromeUA, nil)

	sessions, err := service.ListMySessions(ctx, userID, "")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "Chrome", sessions[0].Device.Browser)
	require.Equal(t, "Windows", sessions[0].Device.OS)
	require.True(t, sessions[0].Device.IsDesktop)
	require.Equal(t, "Chrome 120.0.0.0 on Windows 10", sessions[0].DeviceLabel)
}

func TestRevokeOneDoesNotDiscloseForeignSessions(t *testing.T) {
	repo := newFakeSessionRepo()
	service := newTestSessionService(repo)
	registry := NewSessionRegistry(repo, time.Second, zap.NewNop())
	ctx := context.Background()
	owner := uuid.New()
	attacker := uuid.New()

	registry.Record(ctx, "ownersession0000", owner, nil, nil)

	// Foreign and unknown ids produce the same error.
	errForeign := service.RevokeOne(ctx, attacker, "ownersession0000")
	errUnknown := service.RevokeOne(ctx, attacker, "neverexisted0000")
	require.Error(t, errForeign)
	require.Error(t, errUnknown)
	require.Equal(t, errForeign.Error(), errUnknown.Error())

	require.False(t, registry.IsRevoked(ctx, "ownersession0000"))
}

func TestRevokeAllOthersRequiresCurrentSessionID(t *testing.T) {
	repo := newFakeSessionRepo()
	service := newTestSessionService(repo)

	_, err := service.RevokeAllOthers(context.Background(), uuid.New(), "")
	require.ErrorContains(t, err, "could not identify current session")
}

func TestAdminListIncludesRevokedSessions(t *testing.T) {
	repo := newFakeSessionRepo()
	service := newTestSessionService(repo)
	registry := NewSessionRegistry(repo, time.Second, zap.NewNop())
	ctx := context.Background()
	userID := uuid.New()

	registry.Record(ctx, "active0000000000", userID, nil, nil)
	registry.Record(ctx, "revoked000000000", userID, nil, nil)
	_, err := registry.Revoke(ctx, "revoked000000000", userID)
	require.NoError(t, err)

	sessions, err := service.ListUserSessions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	revokedSeen := false
	for _, session := range sessions {
		if session.ID == "revoked000000000" {
			require.True(t, session.IsRevoked)
			revokedSeen = true
		}
	}
	require.True(t, revokedSeen)
}
