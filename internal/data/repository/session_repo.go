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

// SessionRepository persists the JWT revocation records. All writes are
// single-statement atomic updates; correctness under concurrent touch/revoke
// relies on the database's row-level atomicity, not on application locks.
type SessionRepository interface {
	// Upsert inserts a record or, when the id already exists, advances
	// last_used_at and fills in user agent / ip if newly provided. It never
	// changes user_id or is_revoked on an existing row.
	Upsert(ctx context.Context, session *entity.Session) error
	// Touch advances last_used_at. Returns false when no row matched.
	Touch(ctx context.Context, sessionID string) (bool, error)
	// FindRevoked returns the is_revoked flag, or pgx.ErrNoRows mapped to
	// (false, false, nil) when the record is missing.
	FindRevoked(ctx context.Context, sessionID string) (revoked bool, found bool, err error)
	// Revoke marks the record revoked when it matches both session id and
	// owner. Returns whether a row was updated.
	Revoke(ctx context.Context, sessionID string, userID uuid.UUID) (bool, error)
	// RevokeAllOthers marks every non-revoked record of the user revoked,
	// excluding currentSessionID. Returns the number of rows updated.
	RevokeAllOthers(ctx context.Context, currentSessionID string, userID uuid.UUID) (int64, error)
	// FindByUser lists the user's records, most recently used first.
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error)
	// PurgeOld deletes records that are both revoked and idle longer than
	// the given number of days. Active records are never deleted.
	PurgeOld(ctx context.Context, olderThanDays int) (int64, error)
	// EnsureSchema creates the sessions table and its user index if absent.
	EnsureSchema(ctx context.Context) error
}

type sessionRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSessionRepository(db database.PgxIface, log *zap.Logger) SessionRepository {
	return &sessionRepository{
		db:  db,
		log: log.With(zap.String("repository", "session")),
	}
}

func (r *sessionRepository) EnsureSchema(ctx context.Context) error {
	createTable := `
		CREATE TABLE IF NOT EXISTS sessions (
			id           TEXT PRIMARY KEY,
			user_id      UUID NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_used_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			user_agent   TEXT,
			ip_address   TEXT,
			is_revoked   BOOLEAN NOT NULL DEFAULT FALSE
		)
	`

	if _, err := r.db.Exec(ctx, createTable); err != nil {
		r.log.Error("Failed to create sessions table", zap.Error(err))
		return fmt.Errorf("create sessions table: %w", err)
	}

	createIndex := `CREATE INDEX IF NOT EXISTS sessions_user_id_idx ON sessions (user_id)`

	if _, err := r.db.Exec(ctx, createIndex); err != nil {
		r.log.Error("Failed to create sessions index", zap.Error(err))
		return fmt.Errorf("create sessions index: %w", err)
	}

	return nil
}

func (r *sessionRepository) Upsert(ctx context.Context, session *entity.Session) error {
	// COALESCE keeps existing user agent / ip when the new values are NULL,
	// so a later touch-as-record cannot blank out device info.
	query := `
		INSERT INTO sessions (id, user_id, user_agent, ip_address)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET last_used_at = NOW(),
		    user_agent = COALESCE(EXCLUDED.user_agent, sessions.user_agent),
		    ip_address = COALESCE(EXCLUDED.ip_address, sessions.ip_address)
	`

	_, err := r.db.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.UserAgent,
		session.IPAddress,
	)

	if err != nil {
		r.log.Error("Failed to upsert session",
			zap.Error(err),
			zap.String("session_id", session.ID),
			zap.String("user_id", session.UserID.String()),
		)
		return fmt.Errorf("upsert session %s: %w", session.ID, err)
	}

	return nil
}

func (r *sessionRepository) Touch(ctx context.Context, sessionID string) (bool, error) {
	query := `
		UPDATE sessions
		SET last_used_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, sessionID)
	if err != nil {
		r.log.Error("Failed to touch session",
			zap.Error(err),
			zap.String("session_id", sessionID),
		)
		return false, fmt.Errorf("touch session %s: %w", sessionID, err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *sessionRepository) FindRevoked(ctx context.Context, sessionID string) (bool, bool, error) {
	query := `
		SELECT is_revoked
		FROM sessions
		WHERE id = $1
	`

	var revoked bool
	err := r.db.QueryRow(ctx, query, sessionID).Scan(&revoked)

	if err == pgx.ErrNoRows {
		return false, false, nil
	}
	if err != nil {
		r.log.Error("Failed to check session revocation",
			zap.Error(err),
			zap.String("session_id", sessionID),
		)
		return false, false, fmt.Errorf("find session %s: %w", sessionID, err)
	}

	return revoked, true, nil
}

func (r *sessionRepository) Revoke(ctx context.Context, sessionID string, userID uuid.UUID) (bool, error) {
	// The user_id predicate is the ownership check: a caller cannot revoke
	// another user's session by guessing its id.
	query := `
		UPDATE sessions
		SET is_revoked = TRUE
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.db.Exec(ctx, query, sessionID, userID)
	if err != nil {
		r.log.Error("Failed to revoke session",
			zap.Error(err),
			zap.String("session_id", sessionID),
			zap.String("user_id", userID.String()),
		)
		return false, fmt.Errorf("revoke session %s: %w", sessionID, err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *sessionRepository) RevokeAllOthers(ctx context.Context, currentSessionID string, userID uuid.UUID) (int64, error) {
	query := `
		UPDATE sessions
		SET is_revoked = TRUE
		WHERE user_id = $1
		  AND id != $2
		  AND is_revoked = FALSE
	`

	result, err := r.db.Exec(ctx, query, userID, currentSessionID)
	if err != nil {
		r.log.Error("Failed to revoke other sessions",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("current_session_id", currentSessionID),
		)
		return 0, fmt.Errorf("revoke other sessions for %s: %w", userID.String(), err)
	}

	return result.RowsAffected(), nil
}

func (r *sessionRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error) {
	query := `
		SELECT id, user_id, created_at, last_used_at,
		       user_agent, ip_address, is_revoked
		FROM sessions
		WHERE user_id = $1
		ORDER BY last_used_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to list sessions",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("list sessions for %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var sessions []*entity.Session
	for rows.Next() {
		var session entity.Session
		err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.CreatedAt,
			&session.LastUsedAt,
			&session.UserAgent,
			&session.IPAddress,
			&session.IsRevoked,
		)
		if err != nil {
			r.log.Error("Failed to scan session row", zap.Error(err))
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, &session)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}

	return sessions, nil
}

func (r *sessionRepository) PurgeOld(ctx context.Context, olderThanDays int) (int64, error) {
	// Only already-revoked records are eligible. An idle but valid session
	// stays until its token expires or it is revoked explicitly.
	query := `
		DELETE FROM sessions
		WHERE is_revoked = TRUE
		  AND last_used_at < NOW() - make_interval(days => $1)
	`

	result, err := r.db.Exec(ctx, query, olderThanDays)
	if err != nil {
		r.log.Error("Failed to purge old sessions",
			zap.Error(err),
			zap.Int("older_than_days", olderThanDays),
		)
		return 0, fmt.Errorf("purge sessions older than %d days: %w", olderThanDays, err)
	}

	return result.RowsAffected(), nil
}
