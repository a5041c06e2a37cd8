// internal/wire/wire.go
package wire

import (
	"net/http"

	"storefront-auth/internal/adaptor"
	"storefront-auth/internal/data/repository"
	"storefront-auth/internal/usecase"
	"storefront-auth/pkg/mailer"
	"storefront-auth/pkg/middleware"
	"storefront-auth/pkg/oauth"
	"storefront-auth/pkg/token"
	"storefront-auth/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App menyimpan semua dependencies
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring menginisialisasi semua dependencies
func Wiring(
	repo *repository.Repository,
	config *utils.Config,
	tokenManager *token.Manager,
	google oauth.ProviderVerifier,
	mail mailer.Mailer,
	logger *zap.Logger,
) *App {
	// Initialize services dan handlers
	service := usecase.NewService(repo, config, tokenManager, google, mail, logger)
	handler := adaptor.NewHandler(service, config, logger)

	// Setup router
	router := setupRouter(handler, service, repo, config, tokenManager, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

// setupRouter konfigurasi Chi router
func setupRouter(
	handler *adaptor.Handler,
	service *usecase.Service,
	repo *repository.Repository,
	config *utils.Config,
	tokenManager *token.Manager,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	// Shared auth middleware
	auth := middleware.Auth(tokenManager, service.Lifecycle, config, logger)

	// Apply routes
	wireAuth(r, handler.Auth, auth, logger)
	wireSession(r, handler.Session, auth, logger)
	wireUser(r, handler.User, auth, repo, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
