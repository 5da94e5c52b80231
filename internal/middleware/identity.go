package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"bayou-board/internal/auth"
	"bayou-board/internal/models"
)

// Identity is the resolved authentication state for one request. Both fields
// are nil for anonymous requests.
type Identity struct {
	Session *models.Session
	User    *models.User

	// Err is set when validation failed for infrastructure reasons. Most
	// handlers treat that as anonymous; the auth-check endpoint reports it.
	Err error
}

// Authenticated reports whether a user was resolved.
func (id *Identity) Authenticated() bool {
	return id != nil && id.User != nil
}

// Define a custom context key type to avoid collisions
type contextKey string

const identityKey contextKey = "identity"

// WithIdentity resolves the session cookie exactly once per request and
// stores the result in the request context. Handlers read the identity from
// the context instead of re-reading the cookie jar. Validation failures from
// infrastructure are logged and degrade to anonymous; the auth-check
// endpoint reports its own 401 for that case.
func WithIdentity(gate *auth.Gate, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, user, err := gate.GetAuth(r)
			if err != nil {
				logger.Error("session validation failed", "error", err)
			}
			identity := &Identity{Session: session, User: user, Err: err}
			next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), identity)))
		})
	}
}

// SetIdentity saves the resolved identity in the context.
func SetIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the resolved identity. Requests that did not
// pass through WithIdentity yield an anonymous identity.
func IdentityFromContext(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(identityKey).(*Identity); ok {
		return identity
	}
	return &Identity{}
}
