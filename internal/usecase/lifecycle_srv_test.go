package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront-auth/internal/data/entity"
	"storefront-auth/pkg/token"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeUserRepo implements repository.UserRepository in memory.
type fakeUserRepo struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*entity.User
	failFind bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind {
		return nil, errStorageDown
	}
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind {
		return nil, errStorageDown
	}
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []*entity.User
	for _, user := range f.users {
		copied := *user
		users = append(users, &copied)
	}
	return users, nil
}

func (f *fakeUserRepo) CountAll(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		user.PasswordHash = &passwordHash
		user.UpdatedAt = time.Now()
	}
	return nil
}

func (f *fakeUserRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		now := time.Now()
		user.EmailVerifiedAt = &now
	}
	return nil
}

func (f *fakeUserRepo) SetFailedLogins(ctx context.Context, id uuid.UUID, failedLogins int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		user.FailedLogins = failedLogins
		user.UpdatedAt = time.Now()
	}
	return nil
}

func (f *fakeUserRepo) RecordLogin(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		now := time.Now()
		user.FailedLogins = 0
		user.LastLoginAt = &now
	}
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

func newVerifiedUser() *entity.User {
	now := time.Now()
	hash := "$2a$10$fakefakefakefakefakefake"
	return &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:            "Jordan",
		Email:           "jordan@example.com",
		PasswordHash:    &hash,
		Role:            entity.RoleCustomer,
		EmailVerifiedAt: &now,
	}
}

func claimsFor(user *entity.User, lastValidated int64) *token.Claims {
	return &token.Claims{
		Email:         user.Email,
		Name:          user.Name,
		Role:          string(user.Role),
		EmailVerified: true,
		LastValidated: lastValidated,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.ID.String(),
		},
	}
}

func newTestLifecycle(userRepo *fakeUserRepo, sessionRepo *fakeSessionRepo, canPersist bool) TokenLifecycle {
	registry := NewSessionRegistry(sessionRepo, time.Second, zap.NewNop())
	return NewTokenLifecycle(userRepo, registry, time.Hour, canPersist, zap.NewNop())
}

func TestValidateRejectsRevokedSession(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	lifecycle := newTestLifecycle(users, sessions, true)
	ctx := context.Background()

	user := newVerifiedUser()
	require.NoError(t, users.Create(ctx, user))

	// Sign in on "device A", then revoke from elsewhere.
	lifecycle.OnSignIn(ctx, user, "deviceaaaaaaaaaa", nil, nil)
	registry := NewSessionRegistry(sessions, time.Second, zap.NewNop())
	revoked, err := registry.Revoke(ctx, "deviceaaaaaaaaaa", user.ID)
	require.NoError(t, err)
	require.True(t, revoked)

	_, err = lifecycle.Validate(ctx, claimsFor(user, time.Now().Unix()), "deviceaaaaaaaaaa", false)
	require.ErrorIs(t, err, ErrSessionRevoked)
}

func TestValidateTouchesSessionOnEveryRequest(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	lifecycle := newTestLifecycle(users, sessions, true)
	ctx := context.Background()

	user := newVerifiedUser()
	require.NoError(t, users.Create(ctx, user))
	lifecycle.OnSignIn(ctx, user, "deviceaaaaaaaaaa", nil, nil)

	sessions.setLastUsed("deviceaaaaaaaaaa", time.Now().Add(-time.Hour))

	_, err := lifecycle.Validate(ctx, claimsFor(user, time.Now().Unix()), "deviceaaaaaaaaaa", false)
	require.NoError(t, err)

	session := sessions.get("deviceaaaaaaaaaa")
	require.NotNil(t, session)
	require.WithinDuration(t, time.Now(), session.LastUsedAt, time.Minute)
}

func TestValidateRecreatesLostSessionRecord(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	lifecycle := newTestLifecycle(users, sessions, true)
	ctx := context.Background()

	user := newVerifiedUser()
	require.NoError(t, users.Create(ctx, user))

	// No OnSignIn happened (registry was down at issuance): the first
	// validated request recreates the record.
	_, err := lifecycle.Validate(ctx, claimsFor(user, time.Now().Unix()), "lostrecord000000", false)
	require.NoError(t, err)

	session := sessions.get("lostrecord000000")
	require.NotNil(t, session)
	require.Equal(t, user.ID, session.UserID)
}

func TestValidateFreshClaimsPassThrough(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	lifecycle := newTestLifecycle(users, sessions, true)
	ctx := context.Background()

	user := newVerifiedUser()
	require.NoError(t, users.Create(ctx, user))

	claims := claimsFor(user, time.Now().Unix())
	result, err := lifecycle.Validate(ctx, claims, "deviceaaaaaaaaaa", false)
	require.NoError(t, err)
	require.False(t, result.Refreshed)
	require.Same(t, claims, result.Claims)
}

func TestValidateRefreshesStaleClaims(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	lifecycle := newTestLifecycle(users, sessions, true)
	ctx := context.Background()

	user := newVerifiedUser()
	require.NoError(t, users.Create(ctx, user))

	// Role changed in the store since the token was issued.
	user.Role = entity.RoleAdmin
	require.NoError(t, users.Update(ctx, user))

	staleAt := time.Now().Add(-2 * time.Hour).Unix()
	result, err := lifecycle.Validate(ctx, claimsFor(user, staleAt), "deviceaaaaaaaaaa", false)
	require.NoError(t, err)
	require.True(t, result.Refreshed)
	require.Equal(t, "admin", result.Claims.Role)
	require.Greater(t, result.Claims.LastValidated, staleAt)
}

func TestValidateForceRefresh(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	lifecycle := newTestLifecycle(users, sessions, true)
	ctx := context.Background()

	user := newVerifiedUser()
	require.NoError(t, users.Create(ctx, user))

	result, err := lifecycle.Validate(ctx, claimsFor(user, time.Now().Unix()), "deviceaaaaaaaaaa", true)
	require.NoError(t, err)
	require.True(t, result.Refreshed)
}

func TestValidateRejectsVanishedUser(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	lifecycle := newTestLifecycle(users, sessions, true)
	ctx := context.Background()

	user := newVerifiedUser()
	// Never created in the store; stale claims force a lookup.
	staleAt := time.Now().Add(-2 * time.Hour).Unix()

	_, err := lifecycle.Validate(ctx, claimsFor(user, staleAt), "deviceaaaaaaaaaa", false)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestValidateRejectsMalformedSubject(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	lifecycle := newTestLifecycle(users, sessions, true)

	claims := &token.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "not-a-uuid"},
	}

	_, err := lifecycle.Validate(context.Background(), claims, "deviceaaaaaaaaaa", false)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestValidateKeepsStaleClaimsOnRefreshError(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	lifecycle := newTestLifecycle(users, sessions, true)
	ctx := context.Background()

	user := newVerifiedUser()
	require.NoError(t, users.Create(ctx, user))
	users.failFind = true

	// A storage error during refresh must not log the user out.
	staleAt := time.Now().Add(-2 * time.Hour).Unix()
	claims := claimsFor(user, staleAt)

	result, err := lifecycle.Validate(ctx, claims, "deviceaaaaaaaaaa", false)
	require.NoError(t, err)
	require.False(t, result.Refreshed)
	require.Equal(t, staleAt, result.Claims.LastValidated)
}

func TestPersistenceDisabledSkipsRegistry(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	lifecycle := newTestLifecycle(users, sessions, false)
	ctx := context.Background()

	user := newVerifiedUser()
	require.NoError(t, users.Create(ctx, user))

	// Sign-in records nothing.
	lifecycle.OnSignIn(ctx, user, "deviceaaaaaaaaaa", nil, nil)
	require.Empty(t, sessions.sessions)

	// Even an explicitly revoked record is not consulted: revocation is
	// enforced by the next request in a persistence-capable runtime.
	require.NoError(t, sessions.Upsert(ctx, &entity.Session{ID: "deviceaaaaaaaaaa", UserID: user.ID}))
	_, err := NewSessionRegistry(sessions, time.Second, zap.NewNop()).Revoke(ctx, "deviceaaaaaaaaaa", user.ID)
	require.NoError(t, err)

	result, err := lifecycle.Validate(ctx, claimsFor(user, time.Now().Unix()), "deviceaaaaaaaaaa", false)
	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestOnSignInRecordsDeviceInfo(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	lifecycle := newTestLifecycle(users, sessions, true)
	ctx := context.Background()

	user := newVerifiedUser()
	require.NoError(t, users.Create(ctx, user))

	userAgent := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0.0.0"
	ipAddress := "203.0.113.7"
	lifecycle.OnSignIn(ctx, user, "deviceaaaaaaaaaa", &userAgent, &ipAddress)

	session := sessions.get("deviceaaaaaaaaaa")
	require.NotNil(t, session)
	require.Equal(t, user.ID, session.UserID)
	require.NotNil(t, session.UserAgent)
	require.Equal(t, userAgent, *session.UserAgent)
	require.NotNil(t, session.IPAddress)
	require.Equal(t, ipAddress, *session.IPAddress)
}
