package adaptor

import (
	"net/http"
	"strings"

	"storefront-auth/internal/dto/response"
	"storefront-auth/internal/usecase"
	"storefront-auth/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SessionHandler struct {
	service usecase.SessionService
	log     *zap.Logger
}

func NewSessionHandler(service usecase.SessionService, log *zap.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		log:     log,
	}
}

// ListMySessions handles GET /api/sessions
func (h *SessionHandler) ListMySessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	currentSessionID, _ := utils.GetSessionIDFromContext(r.Context())

	sessions, err := h.service.ListMySessions(r.Context(), userID, currentSessionID)
	if err != nil {
		h.handleServiceError(w, err, "list sessions")
		return
	}

	utils.ResponseSuccess(w, "Sessions retrieved successfully", sessions)
}

// RevokeSession handles DELETE /api/sessions/{id}
func (h *SessionHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		utils.ResponseBadRequest(w, "Session ID is required", nil)
		return
	}

	if err := h.service.RevokeOne(r.Context(), userID, sessionID); err != nil {
		h.handleServiceError(w, err, "revoke session")
		return
	}

	utils.ResponseSuccess(w, "Session revoked successfully", nil)
}

// RevokeOtherSessions handles POST /api/sessions/revoke-others
func (h *SessionHandler) RevokeOtherSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	currentSessionID, _ := utils.GetSessionIDFromContext(r.Context())

	count, err := h.service.RevokeAllOthers(r.Context(), userID, currentSessionID)
	if err != nil {
		h.handleServiceError(w, err, "revoke other sessions")
		return
	}

	utils.ResponseSuccess(w, "Other sessions revoked successfully", response.RevokeOthersResponse{
		RevokedCount: count,
	})
}

// handleServiceError handles errors for session operations
func (h *SessionHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "may not exist or may not belong"):
		h.log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, errMsg)

	case strings.Contains(errMsg, "could not identify current session"):
		h.log.Warn(operation+" failed - no session id", zap.Error(err))
		utils.ResponseBadRequest(w, errMsg, err)

	default:
		h.log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
