package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the durable proof of an authenticated browser. The token is
// both the lookup key and the secret; it never leaves the server except
// inside the session cookie.
type Session struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Token     string    `json:"-" db:"token"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
