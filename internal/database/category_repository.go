package database

import (
	"context"
	"database/sql"
	"errors"

	"bayou-board/internal/models"
	"bayou-board/internal/utils"

	"github.com/google/uuid"
)

// CreateCategory inserts a new category record.
func (p *PostgresDB) CreateCategory(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (id, name, description, is_active)
		VALUES (:id, :name, :description, :is_active)
	`
	_, err := p.DB.NamedExecContext(ctx, query, category)
	if err != nil {
		if isUniqueViolation(err) {
			return utils.NewAppError(utils.ErrDuplicate, "category already exists", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to create category", err)
	}
	return nil
}

// GetCategory fetches a category by its ID.
func (p *PostgresDB) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	query := `SELECT id, name, description, is_active FROM categories WHERE id = $1`
	var category models.Category
	err := p.DB.GetContext(ctx, &category, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewAppError(utils.ErrCategoryNotFound, "Category not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query category by id", err)
	}
	return &category, nil
}

// GetAllCategories fetches every category, active or not.
func (p *PostgresDB) GetAllCategories(ctx context.Context) ([]*models.Category, error) {
	query := `SELECT id, name, description, is_active FROM categories ORDER BY name ASC`
	categories := []*models.Category{}
	if err := p.DB.SelectContext(ctx, &categories, query); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query all categories", err)
	}
	return emptyIfNil(categories), nil
}

// GetActiveCategories fetches only categories with the active flag set.
func (p *PostgresDB) GetActiveCategories(ctx context.Context) ([]*models.Category, error) {
	query := `SELECT id, name, description, is_active FROM categories WHERE is_active = TRUE ORDER BY name ASC`
	categories := []*models.Category{}
	if err := p.DB.SelectContext(ctx, &categories, query); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query active categories", err)
	}
	return emptyIfNil(categories), nil
}

// UpdateCategory overwrites name, description and active flag.
func (p *PostgresDB) UpdateCategory(ctx context.Context, category *models.Category) error {
	query := `UPDATE categories SET name = :name, description = :description, is_active = :is_active WHERE id = :id`
	result, err := p.DB.NamedExecContext(ctx, query, category)
	if err != nil {
		if isUniqueViolation(err) {
			return utils.NewAppError(utils.ErrDuplicate, "category name already in use", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to update category", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to get rows affected after update", err)
	}
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrCategoryNotFound, "Category not found", nil)
	}
	return nil
}

// DeleteCategory hard-deletes a category. An active category is refused; the
// check and the delete share one transaction so a concurrent reactivation
// cannot slip between them.
func (p *PostgresDB) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin transaction for delete category", err)
	}
	defer tx.Rollback()

	var category models.Category
	err = tx.GetContext(ctx, &category, `SELECT id, name, description, is_active FROM categories WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.NewAppError(utils.ErrCategoryNotFound, "Category not found", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to query category for deletion", err)
	}

	if category.IsActive {
		return utils.NewCategoryActiveError()
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete category", err)
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit delete category", err)
	}
	return nil
}
