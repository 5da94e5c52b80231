package auth

import (
	"net/http"
	"time"

	"bayou-board/internal/models"
)

// SessionCookieName is the name of the cookie carrying the session token.
const SessionCookieName = "session"

// Gate reads the session cookie, delegates to the session manager, and hands
// the resolved identity to callers. It knows nothing about roles beyond
// passing the user's role field through.
type Gate struct {
	sessions *Manager
	secure   bool // Secure cookie attribute; production only
}

// NewGate builds an auth gate. secure controls the cookie's Secure attribute
// and should be true only in production environments.
func NewGate(sessions *Manager, secure bool) *Gate {
	return &Gate{sessions: sessions, secure: secure}
}

// SetSessionCookie writes the session cookie after login or registration.
// The cookie expiry matches the session's expiry.
func (g *Gate) SetSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   g.secure,
		Path:     "/",
		Expires:  expiresAt,
	})
}

// ClearSessionCookie empties the cookie with Max-Age 0 so the browser drops
// it immediately. Callers must also invalidate the session record; clearing
// the cookie alone would leave a usable session row behind.
func (g *Gate) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   g.secure,
		Path:     "/",
		MaxAge:   -1,
	})
}

// GetAuth resolves the request's identity. A missing cookie short-circuits
// to the null pair without touching the session manager. "No session" and
// "expired" come back as (nil, nil, nil); infrastructure errors propagate.
func (g *Gate) GetAuth(r *http.Request) (*models.Session, *models.User, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil, nil
	}
	return g.sessions.ValidateSession(r.Context(), cookie.Value)
}
