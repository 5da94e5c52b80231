package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bayou-board/internal/auth"
	"bayou-board/internal/config"
	"bayou-board/internal/database"
	"bayou-board/internal/middleware"
	"bayou-board/internal/utils"
)

// Messages shared across the mutating endpoints.
const (
	msgNotLoggedIn      = "You are not logged in or your session is invalid"
	msgPermissionDenied = "Permission denied"
	msgDatabaseError    = "Database query error"
)

// Server holds all handler dependencies.
type Server struct {
	DB       database.DBAdapter
	Sessions *auth.Manager
	Gate     *auth.Gate
	Logger   *slog.Logger
	Config   *config.Config
}

// NewServer creates a new Server instance with the given components.
func NewServer(db database.DBAdapter, sessions *auth.Manager, gate *auth.Gate, logger *slog.Logger, cfg *config.Config) *Server {
	return &Server{
		DB:       db,
		Sessions: sessions,
		Gate:     gate,
		Logger:   logger,
		Config:   cfg,
	}
}

// Routes registers every endpoint on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.HandleHealth())

	mux.HandleFunc("POST /auth/register", s.HandleRegister())
	mux.HandleFunc("POST /auth/login", s.HandleLogin())
	mux.HandleFunc("POST /auth/logout", s.HandleLogout())
	mux.HandleFunc("GET /api/auth", s.HandleAuthCheck())

	mux.HandleFunc("GET /api/get-user/{username}", s.HandleGetUser())
	mux.HandleFunc("GET /api/get-users", s.HandleGetUsers())
	mux.HandleFunc("GET /api/users/{username}/profile", s.HandleUserProfile())
	mux.HandleFunc("GET /api/users/{username}/reputation", s.HandleReputationHistory())
	mux.HandleFunc("POST /api/profile/change-username", s.HandleChangeUsername())
	mux.HandleFunc("POST /api/profile/reputation/give", s.HandleGiveReputation())

	mux.HandleFunc("GET /api/categories", s.HandleActiveCategories())
	mux.HandleFunc("GET /api/admin/categories", s.HandleAdminCategories())
	mux.HandleFunc("POST /api/admin/categories/create", s.HandleCreateCategory())
	mux.HandleFunc("POST /api/admin/categories/update", s.HandleUpdateCategory())
	mux.HandleFunc("POST /api/admin/categories/delete", s.HandleDeleteCategory())
	mux.HandleFunc("POST /api/admin/users/delete", s.HandleDeleteUser())

	return mux
}

// ActionResponse is the envelope every mutating endpoint returns. Errors are
// converted into it at this boundary; expected failures never surface as 5xx.
type ActionResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.Logger.Error("failed to encode response", "error", err)
	}
}

// writeAction writes the action envelope with HTTP 200: action outcomes are
// values, not transport errors, since they feed already-rendered UI.
func (s *Server) writeAction(w http.ResponseWriter, success bool, message string) {
	s.writeJSON(w, http.StatusOK, ActionResponse{Success: success, Message: message})
}

// actionMessage converts an internal error into user-facing action copy.
// Database failures collapse to a generic message; raw driver detail never
// reaches the client.
func actionMessage(err error, fallback string) string {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		if appErr.Code == utils.ErrDatabase {
			return msgDatabaseError
		}
		return appErr.Message
	}
	return fallback
}

// requireUser fetches the request identity, writing the standard failure
// envelope when the request is anonymous.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (*middleware.Identity, bool) {
	identity := middleware.IdentityFromContext(r.Context())
	if !identity.Authenticated() {
		s.writeAction(w, false, msgNotLoggedIn)
		return nil, false
	}
	return identity, true
}

// requireAdmin is requireUser plus the role check every admin action
// performs independently of the auth gate.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) (*middleware.Identity, bool) {
	identity, ok := s.requireUser(w, r)
	if !ok {
		return nil, false
	}
	if !identity.User.IsAdmin() {
		s.writeAction(w, false, msgPermissionDenied)
		return nil, false
	}
	return identity, true
}
