// main.go
package main

import (
	"context"
	"log"
	"time"

	"storefront-auth/cmd"
	"storefront-auth/internal/data/repository"
	"storefront-auth/internal/wire"
	"storefront-auth/pkg/database"
	"storefront-auth/pkg/mailer"
	"storefront-auth/pkg/oauth"
	"storefront-auth/pkg/token"
	"storefront-auth/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("env", config.App.Env),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Session table is created on boot if missing
	if err := repos.Session.EnsureSchema(context.Background()); err != nil {
		logger.Fatal("Failed to ensure session schema", zap.Error(err))
	}

	// Token manager
	tokenManager, err := token.NewManager(token.Config{
		Secret: config.JWT.Secret,
		Issuer: config.App.Name,
		TTL:    time.Duration(config.JWT.ExpiryHours) * time.Hour,
	})
	if err != nil {
		logger.Fatal("Failed to init token manager", zap.Error(err))
	}

	// Google sign-in is optional; without a client id the endpoint reports
	// itself unconfigured.
	var google oauth.ProviderVerifier
	if config.OAuth.GoogleClientID != "" {
		google, err = oauth.NewGoogleVerifier(context.Background(), config.OAuth.GoogleIssuer, config.OAuth.GoogleClientID)
		if err != nil {
			logger.Fatal("Failed to init Google verifier", zap.Error(err))
		}
		logger.Info("Google sign-in enabled")
	}

	mail := mailer.NewSMTPMailer(config.Email, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, config, tokenManager, google, mail, logger)

	// Clean up old revoked sessions on boot, then once a day
	go runSessionPurge(app, config, logger)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(app.Router, config.App.Port)
}

// runSessionPurge deletes revoked sessions idle past the retention window.
// Active sessions are never purged, whatever their age.
func runSessionPurge(app *wire.App, config *utils.Config, logger *zap.Logger) {
	purge := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if _, err := app.Service.Registry.PurgeOld(ctx, config.Session.RetentionDays); err != nil {
			logger.Error("Session purge failed", zap.Error(err))
		}
	}

	purge()

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		purge()
	}
}
