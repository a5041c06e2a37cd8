package usecase

import (
	"context"
	"time"

	"storefront-auth/internal/data/entity"
	"storefront-auth/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionRegistry is the single source of truth for which issued tokens are
// still trusted. It wraps the repository with the failure policy the request
// pipeline depends on:
//
//   - Record and Touch are best-effort: a storage error is logged and
//     swallowed so authentication keeps working while the registry is down.
//   - IsRevoked fails open: a missing record or a storage error means "not
//     revoked". A session that was never recorded (registry unreachable at
//     issuance) must not lock the user out. Stricter deployments would flip
//     this to fail-closed at the cost of availability.
//   - Revoke and RevokeAllOthers surface failures, since the user asked for
//     them explicitly and the UI must report the outcome.
//
// Every call is bounded by a short timeout so a slow store cannot hang the
// request pipeline.
type SessionRegistry interface {
	Record(ctx context.Context, sessionID string, userID uuid.UUID, userAgent, ipAddress *string)
	Touch(ctx context.Context, sessionID string, userID *uuid.UUID)
	IsRevoked(ctx context.Context, sessionID string) bool
	Revoke(ctx context.Context, sessionID string, userID uuid.UUID) (bool, error)
	RevokeAllOthers(ctx context.Context, currentSessionID string, userID uuid.UUID) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error)
	PurgeOld(ctx context.Context, olderThanDays int) (int64, error)
}

type sessionRegistry struct {
	sessionRepo repository.SessionRepository
	opTimeout   time.Duration
	log         *zap.Logger
}

func NewSessionRegistry(
	sessionRepo repository.SessionRepository,
	opTimeout time.Duration,
	log *zap.Logger,
) SessionRegistry {
	if opTimeout <= 0 {
		opTimeout = 3 * time.Second
	}

	return &sessionRegistry{
		sessionRepo: sessionRepo,
		opTimeout:   opTimeout,
		log:         log.With(zap.String("service", "session_registry")),
	}
}

// Record upserts a session record at token issuance. Idempotent: recording a
// known id advances last_used_at without creating a duplicate or resetting
// is_revoked. Errors never reach the caller.
func (s *sessionRegistry) Record(ctx context.Context, sessionID string, userID uuid.UUID, userAgent, ipAddress *string) {
	if sessionID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	session := &entity.Session{
		ID:        sessionID,
		UserID:    userID,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if err := s.sessionRepo.Upsert(ctx, session); err != nil {
		s.log.Error("Failed to record session, continuing without tracking",
			zap.Error(err),
			zap.String("session_id", sessionID),
			zap.String("user_id", userID.String()),
		)
	}
}

// Touch advances last_used_at on every validated request. If the record is
// missing and a user id is known, it falls back to Record, which heals
// inserts that were lost while the registry was unreachable. Never fails the
// caller.
func (s *sessionRegistry) Touch(ctx context.Context, sessionID string, userID *uuid.UUID) {
	if sessionID == "" {
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	touched, err := s.sessionRepo.Touch(opCtx, sessionID)
	if err != nil {
		s.log.Error("Failed to touch session, continuing",
			zap.Error(err),
			zap.String("session_id", sessionID),
		)
		return
	}

	if touched {
		return
	}

	if userID == nil {
		s.log.Warn("Touch on unknown session without user id, skipping",
			zap.String("session_id", sessionID),
		)
		return
	}

	s.Record(ctx, sessionID, *userID, nil, nil)
}

// IsRevoked reports whether the session has been explicitly revoked. Missing
// records and storage errors both read as "not revoked" (fail open).
func (s *sessionRegistry) IsRevoked(ctx context.Context, sessionID string) bool {
	if sessionID == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	revoked, found, err := s.sessionRepo.FindRevoked(ctx, sessionID)
	if err != nil {
		s.log.Error("Failed to check revocation, failing open",
			zap.Error(err),
			zap.String("session_id", sessionID),
		)
		return false
	}

	return found && revoked
}

// Revoke marks the session revoked if it belongs to the given user. The
// returned bool is false both for unknown ids and for ids owned by someone
// else; callers must not distinguish the two.
func (s *sessionRegistry) Revoke(ctx context.Context, sessionID string, userID uuid.UUID) (bool, error) {
	if sessionID == "" {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	revoked, err := s.sessionRepo.Revoke(ctx, sessionID, userID)
	if err != nil {
		return false, err
	}

	if revoked {
		s.log.Info("Session revoked",
			zap.String("session_id", sessionID),
			zap.String("user_id", userID.String()),
		)
	}

	return revoked, nil
}

// RevokeAllOthers revokes every session of the user except the current one.
// Races with concurrent Touch calls are harmless: is_revoked is monotonic,
// so a late touch can advance last_used_at but never clear the flag.
func (s *sessionRegistry) RevokeAllOthers(ctx context.Context, currentSessionID string, userID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	count, err := s.sessionRepo.RevokeAllOthers(ctx, currentSessionID, userID)
	if err != nil {
		return 0, err
	}

	s.log.Info("Revoked other sessions",
		zap.String("user_id", userID.String()),
		zap.String("current_session_id", currentSessionID),
		zap.Int64("count", count),
	)

	return count, nil
}

func (s *sessionRegistry) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	return s.sessionRepo.FindByUser(ctx, userID)
}

// PurgeOld deletes records that are both revoked and idle beyond the
// retention window. Non-revoked records are never purged by age alone.
func (s *sessionRegistry) PurgeOld(ctx context.Context, olderThanDays int) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	count, err := s.sessionRepo.PurgeOld(ctx, olderThanDays)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		s.log.Info("Purged old revoked sessions", zap.Int64("count", count))
	}

	return count, nil
}
