package auth

import (
	"errors"
	"fmt"
)

// Error codes for authentication failures
const (
	ErrInvalidCredentials  = "AUTH_INVALID_CREDENTIALS"
	ErrEmailAlreadyExists  = "AUTH_EMAIL_ALREADY_EXISTS"
	ErrProviderError       = "AUTH_PROVIDER_ERROR"
	ErrProviderNotFound    = "AUTH_PROVIDER_NOT_FOUND"
	ErrDuplicateProvider   = "AUTH_DUPLICATE_PROVIDER"
	ErrUnsupportedProvider = "AUTH_UNSUPPORTED_PROVIDER"
	ErrSessionInvalid      = "AUTH_SESSION_INVALID"
	ErrInvalidResult       = "AUTH_INVALID_RESULT"
	ErrValidationFailed    = "AUTH_VALIDATION_FAILED"
)

// Messages shown to the user for the fixed failure classes.
const (
	MessageInvalidCredentials = "Invalid credentials"
	MessageEmailAlreadyExists = "Email already exists"
	MessageSignInCancelled    = "Sign-in was cancelled"
)

// AuthError represents an authentication error with code and context.
type AuthError struct {
	// Code is the error code (e.g., AUTH_INVALID_CREDENTIALS)
	Code string

	// Message is the user-facing text, shown verbatim in the error region.
	Message string

	// Context provides additional details about the error
	Context map[string]interface{}

	// Cause is the underlying error that caused this error
	Cause error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Cause
}

// ErrorCode exposes Code to structured logging.
func (e *AuthError) ErrorCode() string {
	return e.Code
}

// NewError creates a new AuthError.
func NewError(code, message string, context map[string]interface{}) *AuthError {
	return &AuthError{
		Code:    code,
		Message: message,
		Context: context,
	}
}

// WrapError wraps an existing error with an AuthError.
func WrapError(code, message string, cause error, context map[string]interface{}) *AuthError {
	return &AuthError{
		Code:    code,
		Message: message,
		Context: context,
		Cause:   cause,
	}
}

// IsAuthError reports whether err, or anything it wraps, is an AuthError
// with the given code.
func IsAuthError(err error, code string) bool {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Code == code
	}
	return false
}
