package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"bayou-board/internal/models"
	"bayou-board/internal/utils"
)

// Pagination describes one page of a listed collection.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	TotalUsers  int `json:"totalUsers"`
	TotalPages  int `json:"totalPages"`
}

// UsersResponse is the paginated user listing payload.
type UsersResponse struct {
	Users      []*models.UserSummary `json:"users"`
	Pagination Pagination            `json:"pagination"`
}

var usernameFormat = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// writeLookupError emits the lightweight error shape used by the read-only
// endpoints: a message plus the internal error code, nothing else.
func (s *Server) writeLookupError(w http.ResponseWriter, err error, fallback string) {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		s.writeJSON(w, utils.AppErrorToHTTPStatus(appErr.Code), map[string]string{
			"message":   msgDatabaseError,
			"errorCode": appErr.Code,
		})
		return
	}
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"message": fallback})
}

// HandleGetUser returns the public projection of a single user.
func (s *Server) HandleGetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.PathValue("username")

		user, err := s.DB.GetUserByUsername(r.Context(), username)
		if err != nil {
			if utils.IsErrorCode(err, utils.ErrUserNotFound) {
				s.writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
				return
			}
			s.Logger.Error("failed to fetch user", "username", username, "error", err)
			s.writeLookupError(w, err, "Error fetching user")
			return
		}

		s.writeJSON(w, http.StatusOK, models.UserSummary{Username: user.Username, Role: user.Role})
	}
}

// HandleGetUsers lists users with pagination and optional username search.
func (s *Server) HandleGetUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := queryInt(r, "page", 1)
		limit := queryInt(r, "limit", 10)
		search := r.URL.Query().Get("search")

		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = 10
		}
		offset := (page - 1) * limit

		users, total, err := s.DB.SearchUsers(r.Context(), search, limit, offset)
		if err != nil {
			s.Logger.Error("failed to search users", "error", err)
			s.writeLookupError(w, err, "Internal Server Error")
			return
		}

		totalPages := (total + limit - 1) / limit

		s.writeJSON(w, http.StatusOK, UsersResponse{
			Users: users,
			Pagination: Pagination{
				CurrentPage: page,
				PageSize:    limit,
				TotalUsers:  total,
				TotalPages:  totalPages,
			},
		})
	}
}

// HandleUserProfile returns a user's profile with thread and comment counts.
func (s *Server) HandleUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.PathValue("username")

		profile, err := s.DB.GetUserProfile(r.Context(), username)
		if err != nil {
			if utils.IsErrorCode(err, utils.ErrUserNotFound) {
				s.writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
				return
			}
			s.Logger.Error("failed to fetch user profile", "username", username, "error", err)
			s.writeLookupError(w, err, "Error fetching user")
			return
		}

		s.writeJSON(w, http.StatusOK, profile)
	}
}

// ChangeUsernameRequest renames the calling user's account.
type ChangeUsernameRequest struct {
	OldUsername string `json:"oldUsername"`
	NewUsername string `json:"newUsername"`
}

// HandleChangeUsername renames the authenticated user. The new name's
// uniqueness is enforced by the update itself, not a prior read. No cooldown
// is enforced server-side.
func (s *Server) HandleChangeUsername() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChangeUsernameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeAction(w, false, "Invalid request")
			return
		}

		if req.OldUsername == "" || req.NewUsername == "" {
			s.writeAction(w, false, "Username is required")
			return
		}

		identity, ok := s.requireUser(w, r)
		if !ok {
			return
		}

		if identity.User.Username != req.OldUsername {
			s.writeAction(w, false, "You are not authorized to change this username")
			return
		}

		newUsername := strings.TrimSpace(req.NewUsername)
		if newUsername == "" || containsWhitespace(newUsername) || !usernameFormat.MatchString(newUsername) {
			s.writeAction(w, false, "Invalid username format")
			return
		}

		if err := s.DB.UpdateUsername(r.Context(), identity.User.ID, newUsername); err != nil {
			if utils.IsErrorCode(err, utils.ErrDuplicate) {
				s.writeAction(w, false, "Username is already taken")
				return
			}
			s.Logger.Error("failed to change username", "error", err)
			s.writeAction(w, false, actionMessage(err, "Error changing username"))
			return
		}

		s.writeAction(w, true, "Username updated successfully")
	}
}

// DeleteUserRequest names the account an admin wants removed.
type DeleteUserRequest struct {
	Username string `json:"username"`
}

// HandleDeleteUser removes a user account and everything that cascades from
// it. Admin only; self-deletion is refused inside the same transaction that
// performs the delete.
func (s *Server) HandleDeleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeleteUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeAction(w, false, "Invalid request")
			return
		}

		if req.Username == "" {
			s.writeAction(w, false, "Username is required")
			return
		}
		if !usernameFormat.MatchString(strings.TrimSpace(req.Username)) {
			s.writeAction(w, false, "Invalid username format")
			return
		}

		identity, ok := s.requireAdmin(w, r)
		if !ok {
			return
		}

		if err := s.DB.DeleteUser(r.Context(), req.Username, identity.User.ID); err != nil {
			s.Logger.Error("failed to delete user", "username", req.Username, "error", err)
			s.writeAction(w, false, actionMessage(err, "Error deleting user"))
			return
		}

		s.writeAction(w, true, "User deleted successfully")
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
