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

// GiveReputation appends a reputation entry and adjusts the receiver's
// current reputation in one transaction.
func (p *PostgresDB) GiveReputation(ctx context.Context, entry *models.ReputationEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin transaction for reputation", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO reputation_entries (id, giver_id, receiver_id, amount, reason, thread_id, comment_id, created_at)
		VALUES (:id, :giver_id, :receiver_id, :amount, :reason, :thread_id, :comment_id, :created_at)
	`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save reputation entry", err)
	}

	updateQuery := `UPDATE user_info SET reputation = reputation + $1 WHERE user_id = $2`
	result, err := tx.ExecContext(ctx, updateQuery, entry.Amount, entry.ReceiverID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update receiver reputation", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to get rows affected after reputation update", err)
	}
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "receiver not found for reputation update", nil)
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit reputation transaction", err)
	}
	return nil
}

// GetReputationHistory assembles the full reputation payload for a user:
// current stats plus received and given entries, newest first, with
// giver/receiver names and thread/comment attachments resolved.
func (p *PostgresDB) GetReputationHistory(ctx context.Context, username string) (*models.ReputationHistory, error) {
	var owner struct {
		ID              uuid.UUID `db:"id"`
		Username        string    `db:"username"`
		Reputation      int       `db:"reputation"`
		ReputationPower int       `db:"reputation_power"`
	}
	ownerQuery := `
		SELECT u.id, u.username, COALESCE(i.reputation, 0) AS reputation,
		       COALESCE(i.reputation_power, 0) AS reputation_power
		FROM users u
		LEFT JOIN user_info i ON i.user_id = u.id
		WHERE u.username = $1
	`
	if err := p.DB.GetContext(ctx, &owner, ownerQuery, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user for reputation history", err)
	}

	receivedQuery := `
		SELECT
			r.id, r.amount, r.reason, r.created_at,
			g.username AS giver_username,
			r.thread_id, t.title AS thread_title,
			r.comment_id, c.content AS comment_content
		FROM reputation_entries r
		JOIN users g ON r.giver_id = g.id
		LEFT JOIN threads t ON r.thread_id = t.id
		LEFT JOIN comments c ON r.comment_id = c.id
		WHERE r.receiver_id = $1
		ORDER BY r.created_at DESC
	`
	received := []*models.ReputationRecord{}
	if err := p.DB.SelectContext(ctx, &received, receivedQuery, owner.ID); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query received reputation", err)
	}

	givenQuery := `
		SELECT
			r.id, r.amount, r.reason, r.created_at,
			rc.username AS receiver_username,
			r.thread_id, t.title AS thread_title,
			r.comment_id, c.content AS comment_content
		FROM reputation_entries r
		JOIN users rc ON r.receiver_id = rc.id
		LEFT JOIN threads t ON r.thread_id = t.id
		LEFT JOIN comments c ON r.comment_id = c.id
		WHERE r.giver_id = $1
		ORDER BY r.created_at DESC
	`
	given := []*models.ReputationRecord{}
	if err := p.DB.SelectContext(ctx, &given, givenQuery, owner.ID); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query given reputation", err)
	}

	stats := models.ReputationStats{
		Username:          owner.Username,
		ReceivedCount:     len(received),
		GivenCount:        len(given),
		CurrentReputation: owner.Reputation,
		ReputationPower:   owner.ReputationPower,
	}
	for _, entry := range received {
		stats.TotalReceived += entry.Amount
	}
	for _, entry := range given {
		stats.TotalGiven += entry.Amount
	}

	return &models.ReputationHistory{
		User:     stats,
		Received: emptyIfNil(received),
		Given:    emptyIfNil(given),
	}, nil
}
