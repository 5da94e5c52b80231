package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"bayou-board/internal/models"
	"bayou-board/internal/utils"

	"github.com/google/uuid"
)

// CategoryRequest carries the fields for create and update. ID is ignored on
// create and required on update.
type CategoryRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
}

// DeleteCategoryRequest names the category an admin wants removed.
type DeleteCategoryRequest struct {
	ID string `json:"id"`
}

// validateCategoryFields checks the length bounds shared by create and
// update. Returns an empty string when the fields are acceptable.
func validateCategoryFields(name, description string) string {
	if name == "" || description == "" {
		return "Missing field"
	}
	if len(name) < 2 || len(name) > 20 {
		return "Category name must be between 2 and 20 characters"
	}
	if len(description) < 10 || len(description) > 50 {
		return "Category description must be between 10 and 50 characters"
	}
	return ""
}

// HandleActiveCategories lists active categories. Public, no auth.
func (s *Server) HandleActiveCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := s.DB.GetActiveCategories(r.Context())
		if err != nil {
			s.Logger.Error("failed to list active categories", "error", err)
			s.writeLookupError(w, err, "Error fetching categories")
			return
		}
		s.writeJSON(w, http.StatusOK, categories)
	}
}

// HandleAdminCategories lists every category, including inactive ones.
func (s *Server) HandleAdminCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}

		categories, err := s.DB.GetAllCategories(r.Context())
		if err != nil {
			s.Logger.Error("failed to list categories", "error", err)
			s.writeLookupError(w, err, "Error fetching categories")
			return
		}
		s.writeJSON(w, http.StatusOK, categories)
	}
}

// HandleCreateCategory creates a category. Admin only.
func (s *Server) HandleCreateCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeAction(w, false, "Invalid request")
			return
		}

		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}

		name := strings.TrimSpace(req.Name)
		description := strings.TrimSpace(req.Description)
		if msg := validateCategoryFields(name, description); msg != "" {
			s.writeAction(w, false, msg)
			return
		}

		category := &models.Category{
			ID:          uuid.New(),
			Name:        name,
			Description: description,
			IsActive:    req.IsActive,
		}
		if err := s.DB.CreateCategory(r.Context(), category); err != nil {
			if utils.IsErrorCode(err, utils.ErrDuplicate) {
				s.writeAction(w, false, "Category name is already in use")
				return
			}
			s.Logger.Error("failed to create category", "error", err)
			s.writeAction(w, false, actionMessage(err, "Error creating category"))
			return
		}

		s.writeAction(w, true, "Category created successfully")
	}
}

// HandleUpdateCategory overwrites a category's name, description and active
// flag. Admin only.
func (s *Server) HandleUpdateCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeAction(w, false, "Invalid request")
			return
		}

		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}

		id, err := uuid.Parse(req.ID)
		if err != nil {
			s.writeAction(w, false, "Invalid category ID")
			return
		}

		name := strings.TrimSpace(req.Name)
		description := strings.TrimSpace(req.Description)
		if msg := validateCategoryFields(name, description); msg != "" {
			s.writeAction(w, false, msg)
			return
		}

		category := &models.Category{
			ID:          id,
			Name:        name,
			Description: description,
			IsActive:    req.IsActive,
		}
		if err := s.DB.UpdateCategory(r.Context(), category); err != nil {
			if utils.IsErrorCode(err, utils.ErrDuplicate) {
				s.writeAction(w, false, "Category name is already in use")
				return
			}
			s.Logger.Error("failed to update category", "id", id, "error", err)
			s.writeAction(w, false, actionMessage(err, "Error updating category"))
			return
		}

		s.writeAction(w, true, "Category updated successfully")
	}
}

// HandleDeleteCategory hard-deletes a category. Admin only; an active
// category must be deactivated first.
func (s *Server) HandleDeleteCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeleteCategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeAction(w, false, "Invalid request")
			return
		}

		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}

		id, err := uuid.Parse(req.ID)
		if err != nil {
			s.writeAction(w, false, "Invalid category ID")
			return
		}

		if err := s.DB.DeleteCategory(r.Context(), id); err != nil {
			s.Logger.Error("failed to delete category", "id", id, "error", err)
			s.writeAction(w, false, actionMessage(err, "Error deleting category"))
			return
		}

		s.writeAction(w, true, "Category deleted successfully")
	}
}
