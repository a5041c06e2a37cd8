package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-auth/internal/data/entity"
	"storefront-auth/internal/usecase"
	"storefront-auth/pkg/token"
	"storefront-auth/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubLifecycle lets each test script the validation outcome and observe the
// session id the middleware derived.
type stubLifecycle struct {
	result       *usecase.ValidationResult
	err          error
	gotSessionID string
}

func (s *stubLifecycle) OnSignIn(ctx context.Context, user *entity.User, sessionID string, userAgent, ipAddress *string) {
}

func (s *stubLifecycle) Validate(ctx context.Context, claims *token.Claims, sessionID string, forceRefresh bool) (*usecase.ValidationResult, error) {
	s.gotSessionID = sessionID
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &usecase.ValidationResult{Claims: claims}, nil
}

func (s *stubLifecycle) NewClaims(user *entity.User) token.Claims {
	return token.Claims{}
}

func testConfig() *utils.Config {
	config := &utils.Config{}
	config.App.Env = "development"
	config.Session.CookieName = "storefront.session-token"
	return config
}

func newTestManager(t *testing.T) *token.Manager {
	t.Helper()
	manager, err := token.NewManager(token.Config{
		Secret: "test-secret-do-not-use",
		Issuer: "storefront-auth",
		TTL:    time.Hour,
	})
	require.NoError(t, err)
	return manager
}

func issueFor(t *testing.T, manager *token.Manager, userID uuid.UUID) string {
	t.Helper()
	issued, err := manager.Issue(token.Claims{
		Email: "jordan@example.com",
		Role:  "customer",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID.String(),
		},
	})
	require.NoError(t, err)
	return issued
}

func runAuth(t *testing.T, lifecycle usecase.TokenLifecycle, prepare func(*http.Request)) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()

	manager := newTestManager(t)
	config := testConfig()

	var seen *http.Request
	handler := Auth(manager, lifecycle, config, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	if prepare != nil {
		prepare(req)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seen
}

func TestAuthRejectsMissingToken(t *testing.T) {
	rec, seen := runAuth(t, &stubLifecycle{}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Nil(t, seen)
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	rec, seen := runAuth(t, &stubLifecycle{}, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "storefront.session-token", Value: "garbage"})
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Nil(t, seen)
}

func TestAuthAcceptsCookieToken(t *testing.T) {
	manager := newTestManager(t)
	userID := uuid.New()
	issued := issueFor(t, manager, userID)

	rec, seen := runAuth(t, &stubLifecycle{}, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "storefront.session-token", Value: issued})
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)

	gotUserID, ok := utils.GetUserIDFromContext(seen.Context())
	require.True(t, ok)
	require.Equal(t, userID, gotUserID)

	sessionID, ok := utils.GetSessionIDFromContext(seen.Context())
	require.True(t, ok)
	require.Equal(t, utils.DeriveSessionID(issued), sessionID)
}

func TestAuthAcceptsBearerFallback(t *testing.T) {
	manager := newTestManager(t)
	issued := issueFor(t, manager, uuid.New())

	rec, seen := runAuth(t, &stubLifecycle{}, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+issued)
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
}

func TestAuthRejectsRevokedSessionAndClearsCookie(t *testing.T) {
	manager := newTestManager(t)
	issued := issueFor(t, manager, uuid.New())
	stub := &stubLifecycle{err: usecase.ErrSessionRevoked}

	rec, seen := runAuth(t, stub, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "storefront.session-token", Value: issued})
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Nil(t, seen)
	require.Equal(t, utils.DeriveSessionID(issued), stub.gotSessionID)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.Equal(t, "storefront.session-token", cookies[0].Name)
	require.Empty(t, cookies[0].Value)
	require.Negative(t, cookies[0].MaxAge)
}

func TestAuthRejectsVanishedUser(t *testing.T) {
	manager := newTestManager(t)
	issued := issueFor(t, manager, uuid.New())

	rec, _ := runAuth(t, &stubLifecycle{err: usecase.ErrUserNotFound}, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "storefront.session-token", Value: issued})
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRotatesCookieOnRefreshedClaims(t *testing.T) {
	manager := newTestManager(t)
	userID := uuid.New()
	issued := issueFor(t, manager, userID)

	refreshed := &token.Claims{
		Email:         "jordan@example.com",
		Role:          "admin",
		LastValidated: time.Now().Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID.String(),
		},
	}
	stub := &stubLifecycle{result: &usecase.ValidationResult{Claims: refreshed, Refreshed: true}}

	rec, seen := runAuth(t, stub, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "storefront.session-token", Value: issued})
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)

	// The rotated cookie carries a token with the refreshed claims.
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.Equal(t, "storefront.session-token", cookies[0].Name)
	require.NotEmpty(t, cookies[0].Value)
	require.NotEqual(t, issued, cookies[0].Value)

	parsed, err := manager.Parse(cookies[0].Value)
	require.NoError(t, err)
	require.Equal(t, "admin", parsed.Role)

	// The refreshed role is what lands in the request context.
	role, ok := utils.GetRoleFromContext(seen.Context())
	require.True(t, ok)
	require.Equal(t, "admin", role)
}
