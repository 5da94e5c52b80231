package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"bayou-board/internal/models"
	"bayou-board/internal/utils"

	"github.com/google/uuid"
)

// GiveReputationRequest transfers reputation points to another user,
// optionally attached to a thread or comment.
type GiveReputationRequest struct {
	Username  string `json:"username"`
	Amount    int    `json:"amount"`
	Reason    string `json:"reason"`
	ThreadID  string `json:"threadId"`
	CommentID string `json:"commentId"`
}

// HandleReputationHistory returns a user's full reputation history: current
// stats plus the received and given entries.
func (s *Server) HandleReputationHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.PathValue("username")

		history, err := s.DB.GetReputationHistory(r.Context(), username)
		if err != nil {
			if utils.IsErrorCode(err, utils.ErrUserNotFound) {
				s.writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
				return
			}
			s.Logger.Error("failed to fetch reputation history", "username", username, "error", err)
			s.writeLookupError(w, err, "Error fetching reputation")
			return
		}

		s.writeJSON(w, http.StatusOK, history)
	}
}

// HandleGiveReputation records a reputation transfer from the authenticated
// user to the named receiver. The entry and the receiver's balance move in
// one transaction.
func (s *Server) HandleGiveReputation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GiveReputationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeAction(w, false, "Invalid request")
			return
		}

		identity, ok := s.requireUser(w, r)
		if !ok {
			return
		}

		receiverName := strings.TrimSpace(req.Username)
		if receiverName == "" {
			s.writeAction(w, false, "Username is required")
			return
		}
		if req.Amount == 0 {
			s.writeAction(w, false, "Amount must not be zero")
			return
		}
		if strings.TrimSpace(req.Reason) == "" {
			s.writeAction(w, false, "Reason is required")
			return
		}
		if receiverName == identity.User.Username {
			s.writeAction(w, false, "You cannot give reputation to yourself")
			return
		}

		receiver, err := s.DB.GetUserByUsername(r.Context(), receiverName)
		if err != nil {
			if utils.IsErrorCode(err, utils.ErrUserNotFound) {
				s.writeAction(w, false, "User not found")
				return
			}
			s.Logger.Error("failed to resolve reputation receiver", "error", err)
			s.writeAction(w, false, actionMessage(err, "Error giving reputation"))
			return
		}

		entry := &models.ReputationEntry{
			ID:         uuid.New(),
			GiverID:    identity.User.ID,
			ReceiverID: receiver.ID,
			Amount:     req.Amount,
			Reason:     strings.TrimSpace(req.Reason),
		}
		if req.ThreadID != "" {
			threadID, err := uuid.Parse(req.ThreadID)
			if err != nil {
				s.writeAction(w, false, "Invalid thread ID")
				return
			}
			entry.ThreadID = &threadID
		}
		if req.CommentID != "" {
			commentID, err := uuid.Parse(req.CommentID)
			if err != nil {
				s.writeAction(w, false, "Invalid comment ID")
				return
			}
			entry.CommentID = &commentID
		}

		if err := s.DB.GiveReputation(r.Context(), entry); err != nil {
			if utils.IsErrorCode(err, utils.ErrUserNotFound) {
				s.writeAction(w, false, "User not found")
				return
			}
			s.Logger.Error("failed to record reputation", "error", err)
			s.writeAction(w, false, actionMessage(err, "Error giving reputation"))
			return
		}

		s.writeAction(w, true, "Reputation given successfully")
	}
}
