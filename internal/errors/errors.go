// Package errors defines coded application errors that carry remediation
// hints for the CLI.
package errors

import (
	"fmt"
	"strings"
)

// ErrorCode identifies a failure class.
type ErrorCode string

const (
	// Configuration (CONFIG-001 to CONFIG-099)
	ErrCodeConfigRead    ErrorCode = "CONFIG-001"
	ErrCodeConfigParse   ErrorCode = "CONFIG-002"
	ErrCodeConfigInvalid ErrorCode = "CONFIG-003"
	ErrCodeConfigWrite   ErrorCode = "CONFIG-004"

	// Local storage (STORAGE-001 to STORAGE-099)
	ErrCodeStorageOpen    ErrorCode = "STORAGE-001"
	ErrCodeStorageRead    ErrorCode = "STORAGE-002"
	ErrCodeStorageWrite   ErrorCode = "STORAGE-003"
	ErrCodeStorageBackend ErrorCode = "STORAGE-004"

	// Session record (SESSION-001 to SESSION-099)
	ErrCodeSessionCorrupt ErrorCode = "SESSION-001"
	ErrCodeSessionPersist ErrorCode = "SESSION-002"
	ErrCodeSessionWatch   ErrorCode = "SESSION-003"

	// Auth providers (PROVIDER-001 to PROVIDER-099)
	ErrCodeProviderUnknown ErrorCode = "PROVIDER-001"
	ErrCodeProviderConfig  ErrorCode = "PROVIDER-002"
)

// AppError is an error with a code, suggestions and an optional cause.
type AppError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

func (e *AppError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, s := range e.Suggestions {
			fmt.Fprintf(&b, "\n  • %s", s)
		}
	}

	return b.String()
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// ErrorCode returns the code as a string for structured logging.
func (e *AppError) ErrorCode() string {
	return string(e.Code)
}

// ErrorSuggestions returns the remediation hints.
func (e *AppError) ErrorSuggestions() []string {
	return e.Suggestions
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// WithSuggestion appends a hint and returns the receiver.
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if ae, ok := err.(*AppError); ok && ae.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func NewConfigParseError(path string, cause error) *AppError {
	return Wrap(ErrCodeConfigParse, fmt.Sprintf("failed to parse config file: %s", path), cause).
		WithSuggestion("Check the YAML syntax of the file").
		WithSuggestion("Run 'mars-auth config view' to see the effective configuration")
}

func NewConfigInvalidError(details string) *AppError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Run 'mars-auth config path' to locate the config file")
}

func NewStorageError(code ErrorCode, key string, cause error) *AppError {
	return Wrap(code, fmt.Sprintf("storage operation failed for key %q", key), cause).
		WithSuggestion("Check that the data directory exists and is writable")
}

func NewSessionCorruptError(cause error) *AppError {
	return Wrap(ErrCodeSessionCorrupt, "persisted session record is unreadable", cause).
		WithSuggestion("Run 'mars-auth logout' to discard the stored session")
}

func NewUnknownProviderError(name string) *AppError {
	return New(ErrCodeProviderUnknown, fmt.Sprintf("unknown auth provider: %s", name)).
		WithSuggestion("Use one of: simulated, local, platform").
		WithSuggestion("Set provider.kind in ~/.mars/config.yaml or MARS_PROVIDER")
}
