package models

import (
	"time"

	"github.com/google/uuid"
)

// ReputationEntry is a directed point transfer between two users, optionally
// attached to a thread or a comment. Entries are append-only.
type ReputationEntry struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	GiverID    uuid.UUID  `json:"giverId" db:"giver_id"`
	ReceiverID uuid.UUID  `json:"receiverId" db:"receiver_id"`
	Amount     int        `json:"amount" db:"amount"`
	Reason     string     `json:"reason" db:"reason"`
	ThreadID   *uuid.UUID `json:"threadId,omitempty" db:"thread_id"`
	CommentID  *uuid.UUID `json:"commentId,omitempty" db:"comment_id"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
}

// UserInfo carries per-user reputation state.
type UserInfo struct {
	UserID          uuid.UUID `json:"userId" db:"user_id"`
	Reputation      int       `json:"reputation" db:"reputation"`
	ReputationPower int       `json:"reputationPower" db:"reputation_power"`
}

// ReputationRecord is one history line with its attachments resolved.
type ReputationRecord struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Amount           int        `json:"amount" db:"amount"`
	Reason           string     `json:"reason" db:"reason"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
	GiverUsername    string     `json:"giverUsername,omitempty" db:"giver_username"`
	ReceiverUsername string     `json:"receiverUsername,omitempty" db:"receiver_username"`
	ThreadID         *uuid.UUID `json:"threadId,omitempty" db:"thread_id"`
	ThreadTitle      *string    `json:"threadTitle,omitempty" db:"thread_title"`
	CommentID        *uuid.UUID `json:"commentId,omitempty" db:"comment_id"`
	CommentContent   *string    `json:"commentContent,omitempty" db:"comment_content"`
}

// ReputationStats summarizes a user's reputation history.
type ReputationStats struct {
	Username          string `json:"username"`
	TotalReceived     int    `json:"totalReceived"`
	TotalGiven        int    `json:"totalGiven"`
	ReceivedCount     int    `json:"receivedCount"`
	GivenCount        int    `json:"givenCount"`
	CurrentReputation int    `json:"currentReputation"`
	ReputationPower   int    `json:"reputationPower"`
}

// ReputationHistory is the full history payload for a user.
type ReputationHistory struct {
	User     ReputationStats     `json:"user"`
	Received []*ReputationRecord `json:"received"`
	Given    []*ReputationRecord `json:"given"`
}
