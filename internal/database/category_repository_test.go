package database

import (
	"context"
	"database/sql"
	"testing"

	"bayou-board/internal/models"
	"bayou-board/internal/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCategory(t *testing.T) {
	p, mock := newMockDB(t)
	category := &models.Category{
		ID:          uuid.New(),
		Name:        "golang",
		Description: "Everything about the Go language",
		IsActive:    true,
	}

	mock.ExpectExec("INSERT INTO categories").
		WithArgs(category.ID, category.Name, category.Description, category.IsActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, p.CreateCategory(context.Background(), category))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCategoryDuplicateName(t *testing.T) {
	p, mock := newMockDB(t)
	category := &models.Category{ID: uuid.New(), Name: "golang", Description: "Everything about Go"}

	mock.ExpectExec("INSERT INTO categories").WillReturnError(uniqueViolation())

	err := p.CreateCategory(context.Background(), category)
	assert.True(t, utils.IsErrorCode(err, utils.ErrDuplicate))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveCategories(t *testing.T) {
	p, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "name", "description", "is_active"}).
		AddRow(uuid.New(), "general", "General discussion board", true).
		AddRow(uuid.New(), "golang", "Everything about Go", true)
	mock.ExpectQuery("SELECT id, name, description, is_active FROM categories WHERE is_active").
		WillReturnRows(rows)

	categories, err := p.GetActiveCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "general", categories[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllCategoriesEmpty(t *testing.T) {
	p, mock := newMockDB(t)

	mock.ExpectQuery("SELECT id, name, description, is_active FROM categories").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "is_active"}))

	categories, err := p.GetAllCategories(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, categories)
	assert.Empty(t, categories)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCategoryNotFound(t *testing.T) {
	p, mock := newMockDB(t)
	category := &models.Category{ID: uuid.New(), Name: "golang", Description: "Everything about Go"}

	mock.ExpectExec("UPDATE categories SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := p.UpdateCategory(context.Background(), category)
	assert.True(t, utils.IsErrorCode(err, utils.ErrCategoryNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCategory(t *testing.T) {
	p, mock := newMockDB(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, description, is_active FROM categories").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "is_active"}).
			AddRow(id, "golang", "Everything about Go", false))
	mock.ExpectExec("DELETE FROM categories").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, p.DeleteCategory(context.Background(), id))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCategoryStillActive(t *testing.T) {
	p, mock := newMockDB(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, description, is_active FROM categories").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "is_active"}).
			AddRow(id, "golang", "Everything about Go", true))
	mock.ExpectRollback()

	err := p.DeleteCategory(context.Background(), id)
	assert.True(t, utils.IsErrorCode(err, utils.ErrCategoryActive))

	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Category is active, deactivate it first", appErr.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCategoryNotFound(t *testing.T) {
	p, mock := newMockDB(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, description, is_active FROM categories").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := p.DeleteCategory(context.Background(), id)
	assert.True(t, utils.IsErrorCode(err, utils.ErrCategoryNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}
