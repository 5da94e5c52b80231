package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bayou-board/internal/models"
	"bayou-board/internal/utils"

	"github.com/google/uuid"
)

// CreateSession inserts a new session row.
func (p *PostgresDB) CreateSession(ctx context.Context, session *models.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO sessions (id, token, user_id, created_at, expires_at)
		VALUES (:id, :token, :user_id, :created_at, :expires_at)
	`
	_, err := p.DB.NamedExecContext(ctx, query, session)
	if err != nil {
		if isUniqueViolation(err) {
			// 256-bit random tokens make this unreachable in practice.
			return utils.NewAppError(utils.ErrDuplicate, "session token collision", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to create session", err)
	}
	return nil
}

// GetSessionByToken fetches a session by its token. A missing row maps to
// ErrNotFound; callers treat that as a normal negative result.
func (p *PostgresDB) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `SELECT id, token, user_id, created_at, expires_at FROM sessions WHERE token = $1`
	var session models.Session
	err := p.DB.GetContext(ctx, &session, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewAppError(utils.ErrNotFound, "session not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query session by token", err)
	}
	return &session, nil
}

// UpdateSessionExpiry pushes a session's expiry forward.
func (p *PostgresDB) UpdateSessionExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	query := `UPDATE sessions SET expires_at = $1 WHERE id = $2`
	result, err := p.DB.ExecContext(ctx, query, expiresAt, id)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update session expiry", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to get rows affected after update", err)
	}
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrNotFound, "session not found for expiry update", nil)
	}
	return nil
}

// DeleteSession removes a session row. Deleting an absent session is not an
// error.
func (p *PostgresDB) DeleteSession(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM sessions WHERE id = $1`
	if _, err := p.DB.ExecContext(ctx, query, id); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete session", err)
	}
	return nil
}

// DeleteExpiredSessions removes every session past its expiry and returns
// the number of rows swept. Used by the background sweeper; validation
// already rejects expired sessions lazily, so this only reclaims storage.
func (p *PostgresDB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at <= $1`
	result, err := p.DB.ExecContext(ctx, query, now)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to delete expired sessions", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to get rows affected after sweep", err)
	}
	return deleted, nil
}
