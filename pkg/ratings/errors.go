package ratings

import (
	"errors"
	"fmt"
)

// Common error variables
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrStoreNotFound    = errors.New("store not found")
	ErrRatingNotFound   = errors.New("rating not found")
	ErrEmailExists      = errors.New("email already registered")
	ErrStoreEmailExists = errors.New("store email already registered")

	ErrValidationFailed  = errors.New("validation failed")
	ErrDatabaseError     = errors.New("database error")
	ErrTransactionFailed = errors.New("transaction failed")
)

// ErrorType classifies an Error for HTTP status mapping.
type ErrorType string

const (
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeDatabase   ErrorType = "database"
	ErrorTypeInternal   ErrorType = "internal"
)

// Error is a structured error carrying a machine-readable type and code in
// addition to the human-readable message. The wrapped cause is logged
// server-side and never serialized to clients.
type Error struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(code, message string) *Error {
	return &Error{Type: ErrorTypeNotFound, Code: code, Message: message}
}

// NewConflictError creates a new conflict error.
func NewConflictError(code, message string) *Error {
	return &Error{Type: ErrorTypeConflict, Code: code, Message: message}
}

// NewValidationError creates a new validation error.
func NewValidationError(code, message string) *Error {
	return &Error{Type: ErrorTypeValidation, Code: code, Message: message}
}

// NewDatabaseError creates a new database error wrapping its cause.
func NewDatabaseError(code, message string, cause error) *Error {
	return &Error{Type: ErrorTypeDatabase, Code: code, Message: message, Cause: cause}
}

// NewInternalError creates a new internal error wrapping its cause.
func NewInternalError(code, message string, cause error) *Error {
	return &Error{Type: ErrorTypeInternal, Code: code, Message: message, Cause: cause}
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Type == ErrorTypeNotFound
	}
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrStoreNotFound) || errors.Is(err, ErrRatingNotFound)
}

// IsConflict checks if the error is a conflict error.
func IsConflict(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Type == ErrorTypeConflict
	}
	return errors.Is(err, ErrEmailExists) || errors.Is(err, ErrStoreEmailExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Type == ErrorTypeValidation
	}
	return errors.Is(err, ErrValidationFailed)
}

// IsDatabase checks if the error is a database error.
func IsDatabase(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Type == ErrorTypeDatabase
	}
	return errors.Is(err, ErrDatabaseError) || errors.Is(err, ErrTransactionFailed)
}
