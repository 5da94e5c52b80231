package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"bayou-board/internal/auth"
	"bayou-board/internal/metrics"
	"bayou-board/internal/middleware"
	"bayou-board/internal/models"
	"bayou-board/internal/utils"

	"github.com/google/uuid"
)

// RegisterRequest represents a request to register a new user
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest represents a request to log in a user
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthCheckResponse is the lightweight auth probe payload.
type AuthCheckResponse struct {
	AuthenticatedUser *AuthenticatedUser `json:"authenticatedUser"`
}

type AuthenticatedUser struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// HandleHealth reports liveness, including a database ping.
func (s *Server) HandleHealth() http.HandlerFunc {
	type pinger interface {
		Ping(ctx context.Context) error
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if db, ok := s.DB.(pinger); ok {
			if err := db.Ping(r.Context()); err != nil {
				s.Logger.Error("health check ping failed", "error", err)
				s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// validatePassword enforces the registration password policy: at least 8
// characters, letters and digits only, with at least one uppercase letter,
// one lowercase letter and one digit.
func validatePassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasUpper, hasLower, hasDigit bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c) && c <= unicode.MaxASCII:
			hasUpper = true
		case unicode.IsLower(c) && c <= unicode.MaxASCII:
			hasLower = true
		case c >= '0' && c <= '9':
			hasDigit = true
		default:
			return false
		}
	}
	return hasUpper && hasLower && hasDigit
}

func containsWhitespace(s string) bool {
	return strings.ContainsFunc(s, unicode.IsSpace)
}

// HandleRegister creates a user, opens a session and sets the session
// cookie. Uniqueness is enforced by the insert itself; there is no prior
// existence check to race against.
func (s *Server) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSON(w, http.StatusBadRequest, ActionResponse{Success: false, Message: "Invalid request"})
			return
		}

		username := strings.TrimSpace(req.Username)
		if username == "" {
			s.writeJSON(w, http.StatusBadRequest, ActionResponse{Success: false, Message: "Username is required"})
			return
		}
		if req.Password == "" {
			s.writeJSON(w, http.StatusBadRequest, ActionResponse{Success: false, Message: "Password is required"})
			return
		}
		if containsWhitespace(username) {
			s.writeJSON(w, http.StatusBadRequest, ActionResponse{Success: false, Message: "Username cannot contain spaces"})
			return
		}
		if containsWhitespace(req.Password) {
			s.writeJSON(w, http.StatusBadRequest, ActionResponse{Success: false, Message: "Password cannot contain spaces"})
			return
		}
		if !validatePassword(req.Password) {
			s.writeJSON(w, http.StatusBadRequest, ActionResponse{
				Success: false,
				Message: "Password must be at least 8 characters long and include uppercase, lowercase, and number",
			})
			return
		}

		hashedPassword, err := auth.HashPassword(req.Password)
		if err != nil {
			s.Logger.Error("password hashing failed", "error", err)
			s.writeJSON(w, http.StatusInternalServerError, ActionResponse{Success: false, Message: "Registration failed"})
			return
		}

		user := &models.User{
			ID:             uuid.New(),
			Username:       username,
			HashedPassword: hashedPassword,
			Role:           models.RoleRegular,
		}
		if err := s.DB.SaveUser(r.Context(), user); err != nil {
			if utils.IsErrorCode(err, utils.ErrUserAlreadyExists) {
				s.writeJSON(w, http.StatusConflict, ActionResponse{Success: false, Message: "Username is already in use"})
				return
			}
			s.Logger.Error("failed to save user", "error", err)
			s.writeJSON(w, http.StatusInternalServerError, ActionResponse{Success: false, Message: msgDatabaseError})
			return
		}

		if err := s.openSession(w, r, user); err != nil {
			return
		}
		s.writeJSON(w, http.StatusOK, ActionResponse{Success: true, Message: "Registration successful", Redirect: "/"})
	}
}

// HandleLogin verifies credentials and opens a session. A missing user and a
// wrong password produce the same message.
func (s *Server) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSON(w, http.StatusBadRequest, ActionResponse{Success: false, Message: "Invalid request"})
			return
		}

		if req.Username == "" || req.Password == "" {
			s.writeJSON(w, http.StatusBadRequest, ActionResponse{Success: false, Message: "Username and password are required"})
			return
		}

		user, err := s.DB.GetUserByUsername(r.Context(), req.Username)
		if err != nil {
			if utils.IsErrorCode(err, utils.ErrUserNotFound) {
				metrics.ObserveLoginFailure()
				s.writeJSON(w, http.StatusUnauthorized, ActionResponse{Success: false, Message: "Incorrect username or password"})
				return
			}
			s.Logger.Error("failed to query user for login", "error", err)
			s.writeJSON(w, http.StatusInternalServerError, ActionResponse{Success: false, Message: msgDatabaseError})
			return
		}

		if !auth.VerifyPassword(user.HashedPassword, req.Password) {
			metrics.ObserveLoginFailure()
			s.writeJSON(w, http.StatusUnauthorized, ActionResponse{Success: false, Message: "Incorrect username or password"})
			return
		}

		if err := s.openSession(w, r, user); err != nil {
			return
		}
		s.writeJSON(w, http.StatusOK, ActionResponse{Success: true, Message: "Login successful", Redirect: "/"})
	}
}

// openSession issues a fresh token, persists the session and sets the
// cookie. On failure the response is already written.
func (s *Server) openSession(w http.ResponseWriter, r *http.Request, user *models.User) error {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		s.Logger.Error("failed to generate session token", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, ActionResponse{Success: false, Message: "Failed to create session"})
		return err
	}

	session, err := s.Sessions.CreateSession(r.Context(), token, user.ID)
	if err != nil {
		s.Logger.Error("failed to create session", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, ActionResponse{Success: false, Message: msgDatabaseError})
		return err
	}

	s.Gate.SetSessionCookie(w, token, session.ExpiresAt)
	metrics.ObserveSessionCreated()
	return nil
}

// HandleLogout invalidates the session record and clears the cookie. Both
// steps always run; a second logout is a no-op, not an error.
func (s *Server) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.IdentityFromContext(r.Context())

		s.Gate.ClearSessionCookie(w)

		if identity.Session != nil {
			if err := s.Sessions.InvalidateSession(r.Context(), identity.Session.ID); err != nil {
				s.Logger.Error("failed to invalidate session", "error", err)
				s.writeJSON(w, http.StatusInternalServerError, ActionResponse{Success: false, Message: msgDatabaseError})
				return
			}
		}

		s.writeJSON(w, http.StatusOK, ActionResponse{Success: true, Message: "Logged out", Redirect: "/"})
	}
}

// HandleAuthCheck reports the authenticated user, or null when the request
// is anonymous. A broken session check degrades to logged out with a 401 so
// the page shell never crashes on it.
func (s *Server) HandleAuthCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.IdentityFromContext(r.Context())

		if identity.Err != nil {
			s.writeJSON(w, http.StatusUnauthorized, map[string]any{
				"user":  nil,
				"error": "Authentication failed",
			})
			return
		}

		var payload AuthCheckResponse
		if identity.Authenticated() {
			payload.AuthenticatedUser = &AuthenticatedUser{
				Username: identity.User.Username,
				Role:     identity.User.Role,
			}
		}
		s.writeJSON(w, http.StatusOK, payload)
	}
}
