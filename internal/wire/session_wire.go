package wire

import (
	"net/http"

	"storefront-auth/internal/adaptor"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireSession configures the session management surface. Everything here is
// scoped to the authenticated caller.
func wireSession(
	r chi.Router,
	sessionHandler *adaptor.SessionHandler,
	auth func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	r.With(auth).Route("/api/sessions", func(r chi.Router) {
		r.Get("/", sessionHandler.ListMySessions)              // GET /api/sessions
		r.Post("/revoke-others", sessionHandler.RevokeOtherSessions) // POST /api/sessions/revoke-others
		r.Delete("/{id}", sessionHandler.RevokeSession)        // DELETE /api/sessions/{session-id}
	})
}
