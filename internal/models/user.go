package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization level attached to a user account.
type Role string

const (
	RoleRegular Role = "REGULAR"
	RoleAdmin   Role = "ADMIN"
)

type User struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Username       string    `json:"username" db:"username"`
	HashedPassword string    `json:"-" db:"password_hash"`
	Role           Role      `json:"role" db:"role"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// IsAdmin reports whether the user may perform admin-only operations.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserSummary is the projection returned by user listing and search.
type UserSummary struct {
	Username string `json:"username" db:"username"`
	Role     Role   `json:"role" db:"role"`
}

// UserProfile is the public profile view of a user.
type UserProfile struct {
	Username     string    `json:"username" db:"username"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	ThreadCount  int       `json:"threadCount" db:"thread_count"`
	CommentCount int       `json:"commentCount" db:"comment_count"`
}
