package wire

import (
	"net/http"

	"storefront-auth/internal/adaptor"
	"storefront-auth/internal/data/repository"
	"storefront-auth/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireUser configures user management routes with role-based access control
func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	auth func(http.Handler) http.Handler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PROTECTED USER ROUTES ====================
	// User profile - requires authentication
	r.With(auth).Get("/api/users/profile", userHandler.GetProfile)

	// ==================== ADMIN ROUTES ====================
	// Admin user management - requires both authentication AND admin role
	r.With(
		auth,                             // Check valid token + session
		middleware.Admin(repo.User, log), // Check admin role
	).Route("/api/admin/users", func(r chi.Router) {
		r.Get("/", userHandler.GetAllUsers)                    // GET /api/admin/users?page=1&per_page=10
		r.Delete("/{id}", userHandler.DeleteUser)              // DELETE /api/admin/users/{user-id}
		r.Get("/{id}/sessions", userHandler.GetUserSessions)   // GET /api/admin/users/{user-id}/sessions
	})
}
