package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront-auth/internal/data/repository"
	"storefront-auth/internal/usecase"
	"storefront-auth/pkg/token"
	"storefront-auth/pkg/utils"

	"go.uber.org/zap"
)

// Auth validates the session token on every protected request. The token is
// read from the session cookie first, falling back to a Bearer header for
// API clients. Beyond signature and expiry checks, the token's session
// record is consulted: a revoked session is rejected even though the token
// itself is still cryptographically valid.
func Auth(tokenManager *token.Manager, lifecycle usecase.TokenLifecycle, config *utils.Config, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken := extractToken(r, config.SessionCookieName())
			if rawToken == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			claims, err := tokenManager.Parse(rawToken)
			if err != nil {
				if errors.Is(err, token.ErrExpiredToken) {
					clearCookie(w, config)
					utils.ResponseUnauthorized(w, "Session expired, please log in again")
					return
				}
				logger.Warn("Rejected invalid token", zap.Error(err))
				clearCookie(w, config)
				utils.ResponseUnauthorized(w, "Invalid token")
				return
			}

			// The session identifier is a short digest of the cookie value,
			// so revocation lookups never store the credential itself.
			sessionID := utils.DeriveSessionID(rawToken)

			result, err := lifecycle.Validate(r.Context(), claims, sessionID, false)
			if err != nil {
				switch {
				case errors.Is(err, usecase.ErrSessionRevoked):
					logger.Warn("Rejected revoked session", zap.String("session_id", sessionID))
					clearCookie(w, config)
					utils.ResponseUnauthorized(w, "Session has been revoked")
				case errors.Is(err, usecase.ErrUserNotFound):
					clearCookie(w, config)
					utils.ResponseUnauthorized(w, "Account no longer exists")
				default:
					logger.Error("Failed to validate session", zap.Error(err))
					utils.ResponseInternalError(w, "Internal server error")
				}
				return
			}

			claims = result.Claims

			// Claims were reloaded from the user store: re-sign and rotate
			// the cookie. The new session record is created by the touch
			// fallback on the next request.
			if result.Refreshed {
				if newToken, signErr := tokenManager.Issue(*claims); signErr == nil {
					http.SetCookie(w, &http.Cookie{
						Name:     config.SessionCookieName(),
						Value:    newToken,
						Path:     "/",
						Expires:  time.Now().Add(tokenManager.TTL()),
						HttpOnly: true,
						Secure:   config.IsProduction(),
						SameSite: http.SameSiteLaxMode,
					})
				} else {
					logger.Error("Failed to re-sign refreshed token", zap.Error(signErr))
				}
			}

			userID, err := utils.ParseUUID(claims.Subject)
			if err != nil {
				utils.ResponseUnauthorized(w, "Invalid token")
				return
			}

			ctx := utils.SetUserContext(r.Context(), userID, claims.Role)
			ctx = utils.SetSessionIDContext(ctx, sessionID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Admin - middleware cek role admin
func Admin(userRepo repository.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Get user ID dari context (sudah diset Auth)
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			// 2. Role from the store, not from claims: claims can lag up to
			// the refresh interval behind a demotion.
			user, err := userRepo.FindByID(r.Context(), userID)
			if err != nil {
				logger.Error("Admin check: failed to get user",
					zap.Error(err), zap.String("user_id", userID.String()))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			// 3. Check if admin
			if user == nil || user.Role != "admin" {
				logger.Warn("Admin check: non-admin access attempt",
					zap.String("user_id", userID.String()),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Admin access required")
				return
			}

			// 4. Lanjut ke handler
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken prefers the session cookie; Bearer is the API fallback.
func extractToken(r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return parts[1]
}

func clearCookie(w http.ResponseWriter, config *utils.Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}
