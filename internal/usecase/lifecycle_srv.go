package usecase

import (
	"context"
	"errors"
	"time"

	"storefront-auth/internal/data/entity"
	"storefront-auth/internal/data/repository"
	"storefront-auth/pkg/token"
	"storefront-auth/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	// ErrSessionRevoked means the token's session record was revoked; the
	// caller must reject the token and force re-authentication.
	ErrSessionRevoked = errors.New("session has been revoked")
	// ErrUserNotFound means the token's user vanished from the store during
	// claim refresh; the token is no longer valid.
	ErrUserNotFound = errors.New("user no longer exists")
)

// ValidationResult carries the (possibly refreshed) claims for a validated
// request. Refreshed tells the transport layer to re-issue the cookie.
type ValidationResult struct {
	Claims    *token.Claims
	Refreshed bool
}

// TokenLifecycle wires the session registry into the token's life cycle:
// recording at issuance, revocation checks plus last-used touches on every
// request, and the periodic claim refresh against the user store.
type TokenLifecycle interface {
	// OnSignIn records a fresh session at token issuance (credential or
	// social). Best-effort: it never fails the sign-in.
	OnSignIn(ctx context.Context, user *entity.User, sessionID string, userAgent, ipAddress *string)
	// Validate runs on every authenticated request. It rejects revoked
	// sessions, touches the session record, and reloads user claims when
	// they are stale or forceRefresh is set.
	Validate(ctx context.Context, claims *token.Claims, sessionID string, forceRefresh bool) (*ValidationResult, error)
	// NewClaims builds fresh session claims from a user record.
	NewClaims(user *entity.User) token.Claims
}

type tokenLifecycle struct {
	userRepo        repository.UserRepository
	registry        SessionRegistry
	refreshInterval time.Duration
	// canPersist is false in execution contexts that cannot reach the
	// registry store; all registry calls then degrade to logged no-ops and
	// revocation is enforced by the next full-runtime request.
	canPersist bool
	log        *zap.Logger
}

func NewTokenLifecycle(
	userRepo repository.UserRepository,
	registry SessionRegistry,
	refreshInterval time.Duration,
	canPersist bool,
	log *zap.Logger,
) TokenLifecycle {
	if refreshInterval <= 0 {
		refreshInterval = time.Hour
	}

	return &tokenLifecycle{
		userRepo:        userRepo,
		registry:        registry,
		refreshInterval: refreshInterval,
		canPersist:      canPersist,
		log:             log.With(zap.String("service", "token_lifecycle")),
	}
}

func (s *tokenLifecycle) OnSignIn(ctx context.Context, user *entity.User, sessionID string, userAgent, ipAddress *string) {
	if sessionID == "" {
		s.log.Warn("Sign-in without session identifier, session not tracked",
			zap.String("user_id", user.ID.String()))
		return
	}

	if !s.canPersist {
		s.log.Debug("Persistence disabled, skipping session record",
			zap.String("session_id", sessionID),
			zap.String("user_id", user.ID.String()),
		)
		return
	}

	s.registry.Record(ctx, sessionID, user.ID, userAgent, ipAddress)

	s.log.Info("Session recorded at sign-in",
		zap.String("session_id", sessionID),
		zap.String("user_id", user.ID.String()),
	)
}

func (s *tokenLifecycle) Validate(ctx context.Context, claims *token.Claims, sessionID string, forceRefresh bool) (*ValidationResult, error) {
	userID, err := utils.ParseUUID(claims.Subject)
	if err != nil {
		s.log.Warn("Token subject is not a valid user id", zap.String("subject", claims.Subject))
		return nil, ErrUserNotFound
	}

	// Revocation check first: this is the single point where a revoked
	// session becomes enforced.
	if sessionID != "" && s.canPersist {
		if s.registry.IsRevoked(ctx, sessionID) {
			s.log.Warn("Rejected revoked session",
				zap.String("session_id", sessionID),
				zap.String("user_id", userID.String()),
			)
			return nil, ErrSessionRevoked
		}

		s.registry.Touch(ctx, sessionID, &userID)
	} else if !s.canPersist {
		s.log.Debug("Persistence disabled, skipping revocation check",
			zap.String("session_id", sessionID))
	}

	// Claim refresh, independent of revocation.
	stale := claims.LastValidated == 0 ||
		time.Since(time.Unix(claims.LastValidated, 0)) > s.refreshInterval

	if !forceRefresh && !stale {
		return &ValidationResult{Claims: claims}, nil
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		// Storage error, not a missing user: keep serving the existing
		// claims and retry the refresh on a later request.
		s.log.Error("Claim refresh failed, keeping stale claims",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return &ValidationResult{Claims: claims}, nil
	}
	if user == nil {
		s.log.Warn("User not found during claim refresh, rejecting token",
			zap.String("user_id", userID.String()))
		return nil, ErrUserNotFound
	}

	refreshed := s.NewClaims(user)
	s.log.Debug("Token claims refreshed", zap.String("user_id", userID.String()))

	return &ValidationResult{Claims: &refreshed, Refreshed: true}, nil
}

func (s *tokenLifecycle) NewClaims(user *entity.User) token.Claims {
	return token.Claims{
		Email:         user.Email,
		Name:          user.Name,
		Role:          string(user.Role),
		EmailVerified: user.IsVerified(),
		LastValidated: time.Now().Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.ID.String(),
		},
	}
}
