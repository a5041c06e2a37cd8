package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"storefront-auth/internal/data/entity"
	"storefront-auth/internal/data/repository"
	"storefront-auth/internal/dto/request"
	"storefront-auth/internal/dto/response"
	"storefront-auth/pkg/mailer"
	"storefront-auth/pkg/oauth"
	"storefront-auth/pkg/token"
	"storefront-auth/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// Lockout policy: after maxFailedAttempts failed logins within the
	// cooldown window the account is temporarily locked.
	maxFailedAttempts = 5
	cooldownPeriod    = 30 * time.Minute

	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = 15 * time.Minute
)

// SignInResult is a successful issuance: the signed token plus the derived
// session identifier the transport cookie maps to.
type SignInResult struct {
	Response  *response.AuthResponse
	Token     string
	SessionID string
	ExpiresAt time.Time
}

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.UserResponse, error)
	Login(ctx context.Context, req *request.LoginRequest, userAgent, ipAddress *string) (*SignInResult, error)
	SocialLogin(ctx context.Context, req *request.SocialLoginRequest, userAgent, ipAddress *string) (*SignInResult, error)
	Logout(ctx context.Context, userID uuid.UUID, sessionID string) error
	VerifyEmail(ctx context.Context, req *request.VerifyEmailRequest) error
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error
}

type authService struct {
	repo         *repository.Repository
	config       *utils.Config
	tokenManager *token.Manager
	lifecycle    TokenLifecycle
	registry     SessionRegistry
	mail         mailer.Mailer
	google       oauth.ProviderVerifier
	log          *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	config *utils.Config,
	tokenManager *token.Manager,
	lifecycle TokenLifecycle,
	registry SessionRegistry,
	mail mailer.Mailer,
	google oauth.ProviderVerifier,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:         repo,
		config:       config,
		tokenManager: tokenManager,
		lifecycle:    lifecycle,
		registry:     registry,
		mail:         mail,
		google:       google,
		log:          log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.UserResponse, error) {
	// 1. Validate input
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	// 2. Check email not taken
	existingUser, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to check email", zap.Error(err), zap.String("email", req.Email))
		return nil, fmt.Errorf("failed to check email")
	}
	if existingUser != nil {
		return nil, fmt.Errorf("email already registered")
	}

	// 3. Hash password
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to process password")
	}

	// 4. Create user. Email stays unverified until the emailed token is
	// consumed; login is blocked until then.
	now := time.Now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: &hashedPassword,
		Role:         entity.RoleCustomer,
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		s.log.Error("Failed to create user", zap.Error(err), zap.String("email", req.Email))
		return nil, fmt.Errorf("failed to create account")
	}

	// 5. Send welcome + verification emails (async, fire and forget)
	go s.sendVerificationToken(user, true)

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest, userAgent, ipAddress *string) (*SignInResult, error) {
	// 1. Validate
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	// 2. Find user by email
	user, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to find user by email", zap.Error(err), zap.String("email", req.Email))
		return nil, fmt.Errorf("failed to find user")
	}

	// 3. Unknown user or OAuth-only account: generic message, but still
	// no lockout bookkeeping possible without a user row.
	if user == nil {
		s.log.Warn("Login attempt for unknown email", zap.String("email", req.Email))
		return nil, fmt.Errorf("invalid email or password")
	}
	if user.PasswordHash == nil {
		s.log.Warn("Password login attempt for OAuth-only account",
			zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("this account cannot use password login")
	}

	// 4. Lockout check before touching the password
	if locked, remaining := s.isAccountLocked(user); locked {
		minutes := int(math.Ceil(remaining.Minutes()))
		s.log.Warn("Login attempt on locked account",
			zap.String("user_id", user.ID.String()),
			zap.Int("cooldown_minutes", minutes))
		return nil, fmt.Errorf("too many failed attempts, try again in %d minutes", minutes)
	}

	// 5. Verify password
	if !utils.CheckPasswordHash(req.Password, *user.PasswordHash) {
		s.recordFailedAttempt(ctx, user)
		return nil, fmt.Errorf("invalid email or password")
	}

	// 6. Block unverified emails
	if !user.IsVerified() {
		s.log.Warn("Login attempt for unverified email", zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("please verify your email before logging in")
	}

	// 7. Reset lockout counter, stamp last login
	if err := s.repo.User.RecordLogin(ctx, user.ID); err != nil {
		s.log.Warn("Failed to record login", zap.Error(err), zap.String("user_id", user.ID.String()))
		// Continue; the login itself succeeded
	}

	// 8. Issue token and record the session
	result, err := s.issueSession(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("session_id", result.SessionID))

	return result, nil
}

func (s *authService) SocialLogin(ctx context.Context, req *request.SocialLoginRequest, userAgent, ipAddress *string) (*SignInResult, error) {
	// 1. Validate
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	if s.google == nil {
		return nil, fmt.Errorf("social login is not configured")
	}

	// 2. Verify the provider ID token
	identity, err := s.google.Verify(ctx, req.IDToken)
	if err != nil {
		s.log.Warn("Social login token verification failed", zap.Error(err))
		return nil, fmt.Errorf("could not sign in with the social provider")
	}

	// 3. Find or create the account, linking by email
	user, err := s.repo.User.FindByEmail(ctx, identity.Email)
	if err != nil {
		s.log.Error("Failed to look up social user", zap.Error(err), zap.String("email", identity.Email))
		return nil, fmt.Errorf("failed to find user")
	}

	if user == nil {
		now := time.Now()
		user = &entity.User{
			Base: entity.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			Name:  identity.Name,
			Email: identity.Email,
			// No password hash: OAuth-only account
			Role:            entity.RoleCustomer,
			EmailVerifiedAt: &now,
		}

		if err := s.repo.User.Create(ctx, user); err != nil {
			s.log.Error("Failed to create social user", zap.Error(err), zap.String("email", identity.Email))
			return nil, fmt.Errorf("failed to create account")
		}

		go s.sendWelcome(user)

		s.log.Info("User created via social login",
			zap.String("user_id", user.ID.String()),
			zap.String("email", user.Email))
	}

	if err := s.repo.User.RecordLogin(ctx, user.ID); err != nil {
		s.log.Warn("Failed to record login", zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	// 4. Same issuance path as credential login
	result, err := s.issueSession(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in via social provider",
		zap.String("user_id", user.ID.String()),
		zap.String("session_id", result.SessionID))

	return result, nil
}

// Logout revokes the caller's own session record so the token is rejected
// on its next use, even before the cookie is cleared client-side.
func (s *authService) Logout(ctx context.Context, userID uuid.UUID, sessionID string) error {
	if sessionID == "" {
		s.log.Warn("Logout without session identifier", zap.String("user_id", userID.String()))
		return nil
	}

	if _, err := s.registry.Revoke(ctx, sessionID, userID); err != nil {
		s.log.Error("Failed to revoke session on logout",
			zap.Error(err),
			zap.String("session_id", sessionID),
			zap.String("user_id", userID.String()),
		)
		return fmt.Errorf("failed to logout")
	}

	s.log.Info("User logged out",
		zap.String("user_id", userID.String()),
		zap.String("session_id", sessionID))
	return nil
}

func (s *authService) VerifyEmail(ctx context.Context, req *request.VerifyEmailRequest) error {
	// 1. Validate
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	// 2. Find valid token
	authToken, err := s.repo.AuthToken.FindValidToken(ctx, req.Token, entity.TokenTypeEmailVerification)
	if err != nil {
		s.log.Error("Failed to find verification token", zap.Error(err))
		return fmt.Errorf("failed to verify email")
	}
	if authToken == nil {
		return fmt.Errorf("invalid or expired verification token")
	}

	// 3. Mark token used
	if err := s.repo.AuthToken.MarkAsUsed(ctx, authToken.ID); err != nil {
		s.log.Warn("Failed to mark token as used", zap.Error(err), zap.String("token_id", authToken.ID.String()))
		// Continue anyway
	}

	// 4. Stamp verification on the user
	if err := s.repo.User.MarkEmailVerified(ctx, authToken.UserID); err != nil {
		s.log.Error("Failed to mark email verified", zap.Error(err), zap.String("user_id", authToken.UserID.String()))
		return fmt.Errorf("failed to verify email")
	}

	s.log.Info("Email verified", zap.String("user_id", authToken.UserID.String()))
	return nil
}

func (s *authService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to find user for resend", zap.Error(err), zap.String("email", email))
		return fmt.Errorf("failed to find user")
	}
	if user == nil {
		return fmt.Errorf("user not found")
	}
	if user.IsVerified() {
		return fmt.Errorf("email already verified")
	}

	go s.sendVerificationToken(user, false)
	return nil
}

func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to find user for reset", zap.Error(err), zap.String("email", email))
		return fmt.Errorf("failed to process request")
	}

	// Never reveal whether the account exists; the caller always gets the
	// same success message.
	if user == nil {
		s.log.Info("Password reset requested for unknown email", zap.String("email", email))
		return nil
	}

	resetToken, err := s.createAuthToken(ctx, user.ID, entity.TokenTypePasswordReset, resetTokenTTL)
	if err != nil {
		s.log.Error("Failed to create reset token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return fmt.Errorf("failed to process request")
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		resetURL := fmt.Sprintf("%s/auth/reset-password?token=%s", s.config.App.BaseURL, resetToken)
		if err := s.mail.SendPasswordResetEmail(ctx, user.Email, user.Name, resetURL, "15 minutes"); err != nil {
			s.log.Error("Failed to send reset email", zap.Error(err), zap.String("email", user.Email))
		}
	}()

	s.log.Info("Password reset email queued", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error {
	// 1. Validate
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	// 2. Find valid token
	authToken, err := s.repo.AuthToken.FindValidToken(ctx, req.Token, entity.TokenTypePasswordReset)
	if err != nil {
		s.log.Error("Failed to find reset token", zap.Error(err))
		return fmt.Errorf("failed to reset password")
	}
	if authToken == nil {
		return fmt.Errorf("invalid or expired reset token")
	}

	// 3. Hash and store the new password
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return fmt.Errorf("failed to process password")
	}

	if err := s.repo.User.UpdatePassword(ctx, authToken.UserID, hashedPassword); err != nil {
		s.log.Error("Failed to update password", zap.Error(err), zap.String("user_id", authToken.UserID.String()))
		return fmt.Errorf("failed to reset password")
	}

	if err := s.repo.AuthToken.MarkAsUsed(ctx, authToken.ID); err != nil {
		s.log.Warn("Failed to mark reset token as used", zap.Error(err))
	}

	// 4. Revoke every existing session: a password reset invalidates all
	// outstanding tokens. The empty "current" id excludes nothing.
	if count, err := s.registry.RevokeAllOthers(ctx, "", authToken.UserID); err != nil {
		s.log.Error("Failed to revoke sessions after reset",
			zap.Error(err),
			zap.String("user_id", authToken.UserID.String()))
	} else {
		s.log.Info("Sessions revoked after password reset",
			zap.String("user_id", authToken.UserID.String()),
			zap.Int64("count", count))
	}

	return nil
}

// ==================== HELPER METHODS ====================

// issueSession signs a token, derives the session identifier from it, and
// records the session in the registry.
func (s *authService) issueSession(ctx context.Context, user *entity.User, userAgent, ipAddress *string) (*SignInResult, error) {
	claims := s.lifecycle.NewClaims(user)

	tokenString, err := s.tokenManager.Issue(claims)
	if err != nil {
		s.log.Error("Failed to sign token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("failed to create session")
	}

	sessionID := utils.DeriveSessionID(tokenString)
	s.lifecycle.OnSignIn(ctx, user, sessionID, userAgent, ipAddress)

	expiresAt := time.Now().Add(s.tokenManager.TTL())

	return &SignInResult{
		Response: &response.AuthResponse{
			UserID:     user.ID.String(),
			Token:      tokenString,
			ExpiresAt:  expiresAt,
			Email:      user.Email,
			Name:       user.Name,
			Role:       user.Role,
			IsVerified: user.IsVerified(),
		},
		Token:     tokenString,
		SessionID: sessionID,
		ExpiresAt: expiresAt,
	}, nil
}

// isAccountLocked applies the cooldown window: the counter only locks while
// the last failed attempt (updated_at) is recent.
func (s *authService) isAccountLocked(user *entity.User) (bool, time.Duration) {
	if user.FailedLogins < maxFailedAttempts {
		return false, 0
	}

	sinceLastAttempt := time.Since(user.UpdatedAt)
	if sinceLastAttempt > cooldownPeriod {
		return false, 0
	}

	return true, cooldownPeriod - sinceLastAttempt
}

func (s *authService) recordFailedAttempt(ctx context.Context, user *entity.User) {
	failedLogins := user.FailedLogins + 1
	// Expired cooldown restarts the count at one
	if time.Since(user.UpdatedAt) > cooldownPeriod {
		failedLogins = 1
	}

	if err := s.repo.User.SetFailedLogins(ctx, user.ID, failedLogins); err != nil {
		s.log.Error("Failed to record failed login attempt",
			zap.Error(err),
			zap.String("user_id", user.ID.String()))
		return
	}

	s.log.Warn("Failed login attempt",
		zap.String("user_id", user.ID.String()),
		zap.Int("failed_logins", failedLogins))
}

func (s *authService) createAuthToken(ctx context.Context, userID uuid.UUID, tokenType entity.AuthTokenType, ttl time.Duration) (string, error) {
	tokenValue, err := utils.GenerateSecureToken(32)
	if err != nil {
		return "", err
	}

	authToken := &entity.AuthToken{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		UserID:    userID,
		Token:     tokenValue,
		TokenType: tokenType,
		ExpiresAt: time.Now().Add(ttl),
	}

	if err := s.repo.AuthToken.Create(ctx, authToken); err != nil {
		return "", err
	}

	return tokenValue, nil
}

func (s *authService) sendVerificationToken(user *entity.User, withWelcome bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	verificationToken, err := s.createAuthToken(ctx, user.ID, entity.TokenTypeEmailVerification, verificationTokenTTL)
	if err != nil {
		s.log.Error("Failed to create verification token",
			zap.Error(err),
			zap.String("user_id", user.ID.String()))
		return
	}

	if withWelcome {
		if err := s.mail.SendWelcomeEmail(ctx, user.Email, user.Name); err != nil {
			s.log.Error("Failed to send welcome email", zap.Error(err), zap.String("email", user.Email))
		}
	}

	verifyURL := fmt.Sprintf("%s/auth/verify?token=%s", s.config.App.BaseURL, verificationToken)
	if err := s.mail.SendVerificationEmail(ctx, user.Email, user.Name, verifyURL, "24 hours"); err != nil {
		s.log.Error("Failed to send verification email", zap.Error(err), zap.String("email", user.Email))
	}
}

func (s *authService) sendWelcome(user *entity.User) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.mail.SendWelcomeEmail(ctx, user.Email, user.Name); err != nil {
		s.log.Error("Failed to send welcome email", zap.Error(err), zap.String("email", user.Email))
	}
}
