package usecase

import (
	"context"
	"fmt"

	"storefront-auth/internal/dto/response"
	"storefront-auth/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionService is the user-facing session management surface. Every
// operation is scoped to the authenticated caller's own records.
type SessionService interface {
	ListMySessions(ctx context.Context, userID uuid.UUID, currentSessionID string) ([]response.SessionResponse, error)
	RevokeOne(ctx context.Context, userID uuid.UUID, sessionID string) error
	RevokeAllOthers(ctx context.Context, userID uuid.UUID, currentSessionID string) (int64, error)
	// ListUserSessions is the admin view: raw records for any user,
	// revoked ones included.
	ListUserSessions(ctx context.Context, userID uuid.UUID) ([]response.SessionResponse, error)
}

type sessionService struct {
	registry SessionRegistry
	log      *zap.Logger
}

func NewSessionService(registry SessionRegistry, log *zap.Logger) SessionService {
	return &sessionService{
		registry: registry,
		log:      log.With(zap.String("service", "session")),
	}
}

func (s *sessionService) ListMySessions(ctx context.Context, userID uuid.UUID, currentSessionID string) ([]response.SessionResponse, error) {
	sessions, err := s.registry.ListByUser(ctx, userID)
	if err != nil {
		s.log.Error("Failed to list sessions", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to retrieve active sessions")
	}

	result := make([]response.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		// Revoked records stay in the table for audit but are hidden from
		// the default view.
		if session.IsRevoked {
			continue
		}

		var userAgent string
		if session.UserAgent != nil {
			userAgent = *session.UserAgent
		}
		device := utils.ParseUserAgent(userAgent)

		result = append(result, response.SessionResponse{
			ID:               session.ID,
			CreatedAt:        session.CreatedAt,
			LastUsedAt:       session.LastUsedAt,
			IPAddress:        session.IPAddress,
			Device:           device,
			DeviceLabel:      utils.FormatDeviceInfo(device),
			IsCurrentSession: currentSessionID != "" && session.ID == currentSessionID,
		})
	}

	return result, nil
}

func (s *sessionService) RevokeOne(ctx context.Context, userID uuid.UUID, sessionID string) error {
	revoked, err := s.registry.Revoke(ctx, sessionID, userID)
	if err != nil {
		s.log.Error("Failed to revoke session",
			zap.Error(err),
			zap.String("session_id", sessionID),
			zap.String("user_id", userID.String()),
		)
		return fmt.Errorf("failed to revoke session")
	}

	// Unknown id and foreign id read the same; don't leak which it was.
	if !revoked {
		return fmt.Errorf("failed to revoke session - it may not exist or may not belong to you")
	}

	return nil
}

func (s *sessionService) RevokeAllOthers(ctx context.Context, userID uuid.UUID, currentSessionID string) (int64, error) {
	// Without knowing "self" we cannot safely revoke "others".
	if currentSessionID == "" {
		return 0, fmt.Errorf("could not identify current session")
	}

	count, err := s.registry.RevokeAllOthers(ctx, currentSessionID, userID)
	if err != nil {
		s.log.Error("Failed to revoke other sessions",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("failed to revoke sessions")
	}

	return count, nil
}

func (s *sessionService) ListUserSessions(ctx context.Context, userID uuid.UUID) ([]response.SessionResponse, error) {
	sessions, err := s.registry.ListByUser(ctx, userID)
	if err != nil {
		s.log.Error("Failed to list sessions for admin",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("failed to retrieve sessions")
	}

	result := make([]response.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		var userAgent string
		if session.UserAgent != nil {
			userAgent = *session.UserAgent
		}
		device := utils.ParseUserAgent(userAgent)

		result = append(result, response.SessionResponse{
			ID:          session.ID,
			CreatedAt:   session.CreatedAt,
			LastUsedAt:  session.LastUsedAt,
			IPAddress:   session.IPAddress,
			Device:      device,
			DeviceLabel: utils.FormatDeviceInfo(device),
			IsRevoked:   session.IsRevoked,
		})
	}

	return result, nil
}
