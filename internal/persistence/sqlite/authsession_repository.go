package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/workforce-tracker/internal/persistence"
)

// AuthSessionRepository implements persistence.AuthSessionRepository using
// SQLite.
type AuthSessionRepository struct {
	pool *ConnectionPool
}

// NewAuthSessionRepository creates a new SQLite auth session repository.
func NewAuthSessionRepository(pool *ConnectionPool) *AuthSessionRepository {
	return &AuthSessionRepository{pool: pool}
}

const authSessionColumns = `id, user_id, token, expires_at, created_at, updated_at, revoked_at`

func scanAuthSession(scanner interface{ Scan(...any) error }) (persistence.AuthSession, error) {
	var (
		session                     persistence.AuthSession
		expiresAt, created, updated string
		revokedAt                   sql.NullString
	)
	if err := scanner.Scan(&session.ID, &session.UserID, &session.Token, &expiresAt, &created, &updated, &revokedAt); err != nil {
		return persistence.AuthSession{}, err
	}
	var err error
	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.AuthSession{}, fmt.Errorf("failed to parse expires_at: %w", err)
	}
	if session.CreatedAt, err = parseTime(created); err != nil {
		return persistence.AuthSession{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.AuthSession{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if session.RevokedAt, err = parseTimePtr(revokedAt); err != nil {
		return persistence.AuthSession{}, fmt.Errorf("failed to parse revoked_at: %w", err)
	}
	return session, nil
}

// CreateAuthSession inserts an issued token.
func (r *AuthSessionRepository) CreateAuthSession(ctx context.Context, session persistence.AuthSession) (persistence.AuthSession, error) {
	if session.ID == "" || session.Token == "" {
		return persistence.AuthSession{}, persistence.ErrConflict
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO auth_sessions (id, user_id, token, expires_at, created_at, updated_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		session.ID,
		session.UserID,
		session.Token,
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
		formatTimePtr(session.RevokedAt),
	)
	if err != nil {
		return persistence.AuthSession{}, mapError(err)
	}
	return r.GetAuthSession(ctx, session.Token)
}

// GetAuthSession retrieves a session by token.
func (r *AuthSessionRepository) GetAuthSession(ctx context.Context, token string) (persistence.AuthSession, error) {
	if token == "" {
		return persistence.AuthSession{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+authSessionColumns+` FROM auth_sessions WHERE token = ?`, token)
	session, err := scanAuthSession(row)
	if err != nil {
		return persistence.AuthSession{}, mapError(err)
	}
	return session, nil
}

// RevokeAuthSession marks the session revoked.
func (r *AuthSessionRepository) RevokeAuthSession(ctx context.Context, token string, revokedAt time.Time) (persistence.AuthSession, error) {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE auth_sessions SET revoked_at = ?, updated_at = ?
		WHERE token = ? AND revoked_at IS NULL
	`, formatTime(revokedAt), formatTime(revokedAt), token)
	if err != nil {
		return persistence.AuthSession{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.AuthSession{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		// Either the token is unknown or the session is already revoked.
		if _, getErr := r.GetAuthSession(ctx, token); getErr != nil {
			return persistence.AuthSession{}, getErr
		}
		return persistence.AuthSession{}, persistence.ErrConflict
	}
	return r.GetAuthSession(ctx, token)
}

// DeleteExpiredAuthSessions removes sessions expired before the reference
// instant.
func (r *AuthSessionRepository) DeleteExpiredAuthSessions(ctx context.Context, reference time.Time) error {
	_, err := r.pool.db.ExecContext(ctx, `
		DELETE FROM auth_sessions WHERE expires_at < ?
	`, formatTime(reference))
	return mapError(err)
}
