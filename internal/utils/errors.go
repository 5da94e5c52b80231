package utils

import (
	"errors"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Origin  error // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

func (appErr *AppError) Unwrap() error {
	return appErr.Origin
}

// Standard error codes for the application
const (
	// Resource errors
	ErrNotFound     = "NOT_FOUND"
	ErrDuplicate    = "DUPLICATE"
	ErrInvalidInput = "INVALID_INPUT"

	// Authentication/Authorization errors
	ErrUnauthorized = "UNAUTHORIZED"
	ErrForbidden    = "FORBIDDEN" // User is authenticated but doesn't have permission

	// User-specific errors
	ErrUserNotFound       = "USER_NOT_FOUND"
	ErrUserAlreadyExists  = "USER_ALREADY_EXISTS"
	ErrInvalidCredentials = "INVALID_CREDENTIALS"
	ErrSelfDeletion       = "SELF_DELETION"

	// Category-specific errors
	ErrCategoryNotFound = "CATEGORY_NOT_FOUND"
	ErrCategoryActive   = "CATEGORY_ACTIVE"

	ErrDatabase = "DATABASE_ERROR"
)

// Error creation helper functions
func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

// Specific error creators for common cases
func NewUserNotFoundError(username string) *AppError {
	return &AppError{
		Code:    ErrUserNotFound,
		Message: "User not found: " + username,
	}
}

func NewUnauthorizedError(reason string) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "Unauthorized: " + reason,
	}
}

func NewInvalidCredentialsError() *AppError {
	return &AppError{
		Code:    ErrInvalidCredentials,
		Message: "Incorrect username or password",
	}
}

func NewCategoryActiveError() *AppError {
	return &AppError{
		Code:    ErrCategoryActive,
		Message: "Category is active, deactivate it first",
	}
}

// Helper method to check if an error is of a specific type
func IsErrorCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Helper method to check if an error is related to authentication
func IsAuthError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == ErrUnauthorized ||
			appErr.Code == ErrForbidden ||
			appErr.Code == ErrInvalidCredentials
	}
	return false
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound, ErrUserNotFound, ErrCategoryNotFound:
		return http.StatusNotFound
	case ErrInvalidInput, ErrSelfDeletion, ErrCategoryActive:
		return http.StatusBadRequest
	case ErrUnauthorized, ErrInvalidCredentials:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrDuplicate, ErrUserAlreadyExists:
		return http.StatusConflict
	case ErrDatabase:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
