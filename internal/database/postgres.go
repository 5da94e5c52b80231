package database

import (
	"context"
	"fmt"
	"time"

	"bayou-board/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DBAdapter defines the persistence operations the application depends on.
type DBAdapter interface {
	// Connection
	Close(ctx context.Context) error

	// User methods
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	SearchUsers(ctx context.Context, search string, limit, offset int) ([]*models.UserSummary, int, error)
	UpdateUsername(ctx context.Context, id uuid.UUID, newUsername string) error
	DeleteUser(ctx context.Context, username string, requesterID uuid.UUID) error
	GetUserProfile(ctx context.Context, username string) (*models.UserProfile, error)

	// Session methods
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	UpdateSessionExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// Category methods
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	GetAllCategories(ctx context.Context) ([]*models.Category, error)
	GetActiveCategories(ctx context.Context) ([]*models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	// Reputation methods
	GiveReputation(ctx context.Context, entry *models.ReputationEntry) error
	GetReputationHistory(ctx context.Context, username string) (*models.ReputationHistory, error)
}

// PostgresDB represents a PostgreSQL database connection
type PostgresDB struct {
	DB *sqlx.DB
}

var _ DBAdapter = (*PostgresDB)(nil)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &PostgresDB{DB: db}, nil
}

// Close closes the database connection
func (p *PostgresDB) Close(ctx context.Context) error {
	return p.DB.Close()
}

// Ping verifies the connection is alive.
func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.DB.PingContext(ctx)
}

// InitializeTables creates all necessary tables if they don't exist
func (p *PostgresDB) InitializeTables(ctx context.Context) error {
	// Users table. The unique constraint on username is load-bearing:
	// registration and username changes rely on it instead of a
	// check-then-act existence read.
	_, err := p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			password_hash VARCHAR(100) NOT NULL,
			role VARCHAR(10) NOT NULL DEFAULT 'REGULAR',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	// Sessions table
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY,
			token VARCHAR(64) UNIQUE NOT NULL,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			expires_at TIMESTAMP WITH TIME ZONE NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}

	// Categories table
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS categories (
			id UUID PRIMARY KEY,
			name VARCHAR(20) UNIQUE NOT NULL,
			description VARCHAR(50) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create categories table: %w", err)
	}

	// Per-user reputation state
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS user_info (
			user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			reputation INTEGER NOT NULL DEFAULT 0,
			reputation_power INTEGER NOT NULL DEFAULT 1
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create user_info table: %w", err)
	}

	// Threads table
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS threads (
			id UUID PRIMARY KEY,
			title VARCHAR(300) NOT NULL,
			author_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			category_id UUID NOT NULL REFERENCES categories(id),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create threads table: %w", err)
	}

	// Comments table
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS comments (
			id UUID PRIMARY KEY,
			content TEXT NOT NULL,
			author_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			thread_id UUID NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create comments table: %w", err)
	}

	// Reputation entries table. Append-only; rows are never updated.
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reputation_entries (
			id UUID PRIMARY KEY,
			giver_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			receiver_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount INTEGER NOT NULL,
			reason TEXT NOT NULL,
			thread_id UUID REFERENCES threads(id) ON DELETE SET NULL,
			comment_id UUID REFERENCES comments(id) ON DELETE SET NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create reputation_entries table: %w", err)
	}

	return nil
}

// emptyIfNil keeps list results as empty slices, never nil, so JSON encodes
// them as [] the way the API promises.
func emptyIfNil[T any](items []*T) []*T {
	if items == nil {
		return make([]*T, 0)
	}
	return items
}
