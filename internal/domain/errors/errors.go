package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidState = errors.New("invalid state")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("resource already exists")
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func Validation(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrValidation)
}

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, ErrNotFound)
}

func InvalidState(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrInvalidState)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, message, ErrForbidden)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, message, ErrConflict)
}

// Internal wraps an unclassified failure, usually from persistence
func Internal(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "internal server error", err)
}

// As extracts an AppError, classifying anything else as internal
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
