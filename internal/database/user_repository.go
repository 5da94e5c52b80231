package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bayou-board/internal/models"
	"bayou-board/internal/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation. Inserts rely on this instead of a prior existence check, so two
// concurrent registrations for the same username cannot both succeed.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}

// SaveUser inserts a new user and its reputation state in one transaction.
func (p *PostgresDB) SaveUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.Role == "" {
		user.Role = models.RoleRegular
	}

	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin transaction for save user", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (id, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.HashedPassword,
		user.Role,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return utils.NewAppError(utils.ErrUserAlreadyExists, "Username is already in use", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to save user", err)
	}

	infoQuery := `INSERT INTO user_info (user_id, reputation, reputation_power) VALUES ($1, 0, 1)`
	if _, err := tx.ExecContext(ctx, infoQuery, user.ID); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save user info", err)
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit save user", err)
	}
	return nil
}

// GetUser fetches a user by their ID.
func (p *PostgresDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT id, username, password_hash, role, created_at FROM users WHERE id = $1`
	var user models.User
	err := p.DB.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user by id", err)
	}
	return &user, nil
}

// GetUserByUsername fetches a user by their username. The match is
// case-sensitive.
func (p *PostgresDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, password_hash, role, created_at FROM users WHERE username = $1`
	var user models.User
	err := p.DB.GetContext(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user by username", err)
	}
	return &user, nil
}

// SearchUsers returns one page of user summaries whose username contains the
// search term, plus the total number of matches for pagination.
func (p *PostgresDB) SearchUsers(ctx context.Context, search string, limit, offset int) ([]*models.UserSummary, int, error) {
	pattern := "%" + search + "%"

	query := `
		SELECT username, role FROM users
		WHERE username LIKE $1
		ORDER BY created_at ASC, username ASC
		LIMIT $2 OFFSET $3
	`
	users := []*models.UserSummary{}
	if err := p.DB.SelectContext(ctx, &users, query, pattern, limit, offset); err != nil {
		return nil, 0, utils.NewAppError(utils.ErrDatabase, "failed to search users", err)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM users WHERE username LIKE $1`
	if err := p.DB.GetContext(ctx, &total, countQuery, pattern); err != nil {
		return nil, 0, utils.NewAppError(utils.ErrDatabase, "failed to count users", err)
	}

	return emptyIfNil(users), total, nil
}

// UpdateUsername changes a user's username in a single atomic update. A
// conflicting name surfaces as a unique violation, never as a prior read.
func (p *PostgresDB) UpdateUsername(ctx context.Context, id uuid.UUID, newUsername string) error {
	query := `UPDATE users SET username = $1 WHERE id = $2`
	result, err := p.DB.ExecContext(ctx, query, newUsername, id)
	if err != nil {
		if isUniqueViolation(err) {
			return utils.NewAppError(utils.ErrDuplicate, "Username is already taken", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to update username", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to get rows affected after update", err)
	}
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "user not found for username update", nil)
	}
	return nil
}

// DeleteUser removes a user and, via cascades, their sessions, threads,
// comments and reputation entries. The lookup, the self-deletion check and
// the delete run in one transaction.
func (p *PostgresDB) DeleteUser(ctx context.Context, username string, requesterID uuid.UUID) error {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin transaction for delete user", err)
	}
	defer tx.Rollback()

	var targetID uuid.UUID
	err = tx.GetContext(ctx, &targetID, `SELECT id FROM users WHERE username = $1`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.NewAppError(utils.ErrUserNotFound, "User not found", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to query user for deletion", err)
	}

	if targetID == requesterID {
		return utils.NewAppError(utils.ErrSelfDeletion, "You cannot delete your own account", nil)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, targetID); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete user", err)
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit delete user", err)
	}
	return nil
}

// GetUserProfile fetches the public profile projection for a username,
// including thread and comment counts.
func (p *PostgresDB) GetUserProfile(ctx context.Context, username string) (*models.UserProfile, error) {
	query := `
		SELECT
			u.username, u.role, u.created_at,
			(SELECT COUNT(*) FROM threads t WHERE t.author_id = u.id) AS thread_count,
			(SELECT COUNT(*) FROM comments c WHERE c.author_id = u.id) AS comment_count
		FROM users u
		WHERE u.username = $1
	`
	var profile models.UserProfile
	err := p.DB.GetContext(ctx, &profile, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user profile", err)
	}
	return &profile, nil
}
