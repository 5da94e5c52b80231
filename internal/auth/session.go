package auth

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"time"

	"bayou-board/internal/models"
	"bayou-board/internal/utils"

	"github.com/google/uuid"
)

// Store is the persistence surface the session manager needs. Satisfied by
// *database.PostgresDB.
type Store interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	UpdateSessionExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// tokenEncoding renders raw token bytes as lowercase base32 without padding,
// keeping tokens cookie-safe.
var tokenEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// GenerateSessionToken returns a 256-bit random opaque token. The token is
// the session's only identifier; collisions are negligible at this size.
func GenerateSessionToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return tokenEncoding.EncodeToString(raw), nil
}

// Manager drives the session lifecycle: create, validate, renew, invalidate.
// Expired sessions are removed lazily during validation; the optional
// background sweeper only reclaims rows that validation never touched.
type Manager struct {
	store    Store
	lifetime time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewManager builds a session manager with the given session lifetime.
func NewManager(store Store, lifetime time.Duration) *Manager {
	return &Manager{
		store:    store,
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Lifetime returns the full session lifetime.
func (m *Manager) Lifetime() time.Duration {
	return m.lifetime
}

// CreateSession inserts a session for the given token and user with expiry
// one full lifetime from now.
func (m *Manager) CreateSession(ctx context.Context, token string, userID uuid.UUID) (*models.Session, error) {
	now := m.now()
	session := &models.Session{
		ID:        uuid.New(),
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.lifetime),
	}
	if err := m.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ValidateSession resolves a token to its session and owning user.
//
// A token that was never issued yields (nil, nil, nil): absence is a normal
// outcome, not an error. An expired session is deleted and also yields the
// null pair. A valid session whose remaining lifetime has dropped below half
// the full lifetime is renewed to a fresh full lifetime before returning.
// Infrastructure failures propagate to the caller untouched.
func (m *Manager) ValidateSession(ctx context.Context, token string) (*models.Session, *models.User, error) {
	session, err := m.store.GetSessionByToken(ctx, token)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	now := m.now()
	if session.Expired(now) {
		if err := m.store.DeleteSession(ctx, session.ID); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	}

	user, err := m.store.GetUser(ctx, session.UserID)
	if err != nil {
		// The schema guarantees a session's user exists; a missing row here
		// is an infrastructure-level inconsistency, not a soft miss.
		return nil, nil, err
	}

	if session.ExpiresAt.Sub(now) < m.lifetime/2 {
		session.ExpiresAt = now.Add(m.lifetime)
		if err := m.store.UpdateSessionExpiry(ctx, session.ID, session.ExpiresAt); err != nil {
			return nil, nil, err
		}
	}

	return session, user, nil
}

// InvalidateSession deletes a session record. Invalidating a session that is
// already gone is a no-op.
func (m *Manager) InvalidateSession(ctx context.Context, sessionID uuid.UUID) error {
	return m.store.DeleteSession(ctx, sessionID)
}
