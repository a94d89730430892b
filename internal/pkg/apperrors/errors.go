package apperrors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// Infrastructure errors
	ErrTransientDependency = errors.New("transient dependency failure")
)

// Membership errors. Each wraps the broader kind it belongs to so callers
// can match either the specific or the general error with errors.Is.
var (
	ErrCommunityInactive  = fmt.Errorf("community is inactive: %w", ErrResourceNotFound)
	ErrAlreadyMember      = fmt.Errorf("already a member: %w", ErrConflict)
	ErrNotAMember         = fmt.Errorf("not a member: %w", ErrConflict)
	ErrLastAdminProtected = fmt.Errorf("community must keep an admin: %w", ErrConflict)
	ErrInvalidRole        = fmt.Errorf("invalid role: %w", ErrValidationFailed)
)

// Relationship errors
var (
	ErrAlreadyFollowing = fmt.Errorf("already following: %w", ErrConflict)
	ErrNotFollowing     = fmt.Errorf("not following: %w", ErrConflict)
)

// Profile errors
var (
	ErrCooldownActive = fmt.Errorf("cooldown active: %w", ErrPermissionDenied)
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewValidationError creates a validation failure carrying the offending field.
func NewValidationError(field, message string) error {
	return (&CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}).WithDetails(map[string]interface{}{"field": field})
}

// NewCooldownError reports how many days remain before an action is allowed again.
func NewCooldownError(message string, daysRemaining int) error {
	return (&CustomError{
		Err:     ErrCooldownActive,
		Message: message,
	}).WithDetails(map[string]interface{}{"days_remaining": daysRemaining})
}

// NewTransientError wraps an infrastructure failure that callers may retry.
func NewTransientError(op string, err error) error {
	return &CustomError{
		Err:     fmt.Errorf("%w: %s: %v", ErrTransientDependency, op, err),
		Message: op + " failed",
	}
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// MessageOf returns the human-readable message of err when it carries one.
func MessageOf(err error) (string, bool) {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message, true
	}
	return "", false
}

// DetailsOf returns the structured details attached to err, if any.
func DetailsOf(err error) map[string]interface{} {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Details
	}
	return nil
}
