package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorUnwrap(t *testing.T) {
	origin := errors.New("connection refused")
	err := NewAppError(ErrDatabase, "query failed", origin)

	assert.Equal(t, "query failed: connection refused", err.Error())
	assert.ErrorIs(t, err, origin)
}

func TestIsErrorCode(t *testing.T) {
	err := NewAppError(ErrUserNotFound, "user not found", nil)

	assert.True(t, IsErrorCode(err, ErrUserNotFound))
	assert.False(t, IsErrorCode(err, ErrDatabase))
	assert.False(t, IsErrorCode(errors.New("plain"), ErrUserNotFound))
	assert.False(t, IsErrorCode(nil, ErrUserNotFound))
}

func TestIsErrorCodeWrapped(t *testing.T) {
	inner := NewAppError(ErrDuplicate, "already exists", nil)
	wrapped := fmt.Errorf("saving user: %w", inner)

	assert.True(t, IsErrorCode(wrapped, ErrDuplicate))
}

func TestAppErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrUserNotFound, http.StatusNotFound},
		{ErrCategoryNotFound, http.StatusNotFound},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrSelfDeletion, http.StatusBadRequest},
		{ErrCategoryActive, http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrDuplicate, http.StatusConflict},
		{ErrUserAlreadyExists, http.StatusConflict},
		{ErrDatabase, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, AppErrorToHTTPStatus(tt.code), "code %s", tt.code)
	}
}
