package repository

import (
	"context"
	"fmt"

	"storefront-auth/internal/data/entity"
	"storefront-auth/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type AuthTokenRepository interface {
	Create(ctx context.Context, token *entity.AuthToken) error
	FindValidToken(ctx context.Context, token string, tokenType entity.AuthTokenType) (*entity.AuthToken, error)
	MarkAsUsed(ctx context.Context, tokenID uuid.UUID) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type authTokenRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewAuthTokenRepository(db database.PgxIface, log *zap.Logger) AuthTokenRepository {
	return &authTokenRepository{
		db:  db,
		log: log.With(zap.String("repository", "auth_token")),
	}
}

func (r *authTokenRepository) Create(ctx context.Context, token *entity.AuthToken) error {
	query := `
		INSERT INTO auth_tokens (id, user_id, token, token_type,
		                         expires_at, is_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		token.ID,
		token.UserID,
		token.Token,
		token.TokenType,
		token.ExpiresAt,
		token.IsUsed,
		token.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create auth token",
			zap.Error(err),
			zap.String("user_id", token.UserID.String()),
			zap.String("token_type", string(token.TokenType)),
		)
		return fmt.Errorf("create %s token: %w", token.TokenType, err)
	}

	return nil
}

func (r *authTokenRepository) FindValidToken(ctx context.Context, token string, tokenType entity.AuthTokenType) (*entity.AuthToken, error) {
	query := `
		SELECT id, user_id, token, token_type, expires_at, is_used, created_at
		FROM auth_tokens
		WHERE token = $1
		  AND token_type = $2
		  AND is_used = false
		  AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`

	var authToken entity.AuthToken
	err := r.db.QueryRow(ctx, query, token, tokenType).Scan(
		&authToken.ID,
		&authToken.UserID,
		&authToken.Token,
		&authToken.TokenType,
		&authToken.ExpiresAt,
		&authToken.IsUsed,
		&authToken.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find auth token",
			zap.Error(err),
			zap.String("token_type", string(tokenType)),
		)
		return nil, fmt.Errorf("find %s token: %w", tokenType, err)
	}

	return &authToken, nil
}

func (r *authTokenRepository) MarkAsUsed(ctx context.Context, tokenID uuid.UUID) error {
	query := `UPDATE auth_tokens SET is_used = true WHERE id = $1`

	_, err := r.db.Exec(ctx, query, tokenID)
	if err != nil {
		r.log.Error("Failed to mark token as used",
			zap.Error(err),
			zap.String("token_id", tokenID.String()),
		)
		return fmt.Errorf("mark token %s as used: %w", tokenID.String(), err)
	}

	return nil
}

func (r *authTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM auth_tokens WHERE expires_at < NOW() - INTERVAL '7 days'`

	result, err := r.db.Exec(ctx, query)
	if err != nil {
		r.log.Error("Failed to delete expired tokens", zap.Error(err))
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	return result.RowsAffected(), nil
}
