package exitcode

import (
	"errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
	apperrors "github.com/felixgeelhaar/mars-auth/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ConfigError indicates an unreadable or invalid configuration
	ConfigError = 3

	// StorageError indicates the session record could not be read or written
	StorageError = 4

	// AuthError indicates a sign-in or sign-up was rejected
	AuthError = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6

	// Interrupted indicates the user cancelled with Ctrl+C
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}
	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error to an exit code. Coded errors are
// classified by code; anything else falls back to message matching.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		code := string(appErr.Code)
		switch {
		case strings.HasPrefix(code, "CONFIG-"):
			return ConfigError
		case strings.HasPrefix(code, "STORAGE-"), strings.HasPrefix(code, "SESSION-"):
			return StorageError
		case strings.HasPrefix(code, "PROVIDER-"):
			return ConfigError
		}
	}

	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		return AuthError
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "invalid credentials") || strings.Contains(errMsg, "unauthorized") {
		return AuthError
	}

	if strings.Contains(errMsg, "network") || strings.Contains(errMsg, "connection") {
		return NetworkError
	}
	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}

	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "missing argument") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case ConfigError:
		return "Configuration error"
	case StorageError:
		return "Session storage error"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
