package models

import (
	"time"

	"github.com/google/uuid"
)

type Thread struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	AuthorID   uuid.UUID `json:"authorId" db:"author_id"`
	CategoryID uuid.UUID `json:"categoryId" db:"category_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

type Comment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Content   string    `json:"content" db:"content"`
	AuthorID  uuid.UUID `json:"authorId" db:"author_id"`
	ThreadID  uuid.UUID `json:"threadId" db:"thread_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
