package usecase

import (
	"time"

	"storefront-auth/internal/data/repository"
	"storefront-auth/pkg/mailer"
	"storefront-auth/pkg/oauth"
	"storefront-auth/pkg/token"
	"storefront-auth/pkg/utils"

	"go.uber.org/zap"
)

// Service bundles the use case layer for wiring.
type Service struct {
	Auth      AuthService
	User      UserService
	Session   SessionService
	Registry  SessionRegistry
	Lifecycle TokenLifecycle
}

func NewService(
	repo *repository.Repository,
	config *utils.Config,
	tokenManager *token.Manager,
	google oauth.ProviderVerifier,
	mail mailer.Mailer,
	log *zap.Logger,
) *Service {
	registry := NewSessionRegistry(
		repo.Session,
		time.Duration(config.Session.OpTimeoutSeconds)*time.Second,
		log,
	)
	lifecycle := NewTokenLifecycle(
		repo.User,
		registry,
		time.Duration(config.JWT.RefreshMinutes)*time.Minute,
		config.Session.Persist,
		log,
	)

	return &Service{
		Auth:      NewAuthService(repo, config, tokenManager, lifecycle, registry, mail, google, log),
		User:      NewUserService(repo, registry, log),
		Session:   NewSessionService(registry, log),
		Registry:  registry,
		Lifecycle: lifecycle,
	}
}
