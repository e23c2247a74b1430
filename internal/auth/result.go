package auth

import (
	"context"
	"errors"
)

// Result is the settled outcome of a provider call. Exactly one of Session
// and ErrorMessage is populated for sign-in results; a successful SignOut
// carries neither.
type Result struct {
	Success      bool
	Session      *Session
	ErrorMessage string
	// Code classifies failures; empty means ErrProviderError.
	Code string
}

// Succeeded returns a successful result.
func Succeeded(session *Session) Result {
	return Result{Success: true, Session: session}
}

// Failed returns a provider failure with msg shown verbatim.
func Failed(msg string) Result {
	return Result{ErrorMessage: msg, Code: ErrProviderError}
}

// FailedWithCode returns a failure classified by code.
func FailedWithCode(code, msg string) Result {
	return Result{ErrorMessage: msg, Code: code}
}

// FromError converts err into a failed Result. AuthErrors keep their code
// and message; context cancellation becomes a cancelled sign-in; anything
// else is a provider error carrying err's text.
func FromError(err error) Result {
	var authErr *AuthError
	switch {
	case errors.As(err, &authErr):
		return FailedWithCode(authErr.Code, authErr.Message)
	case errors.Is(err, context.Canceled):
		return FailedWithCode(ErrProviderError, MessageSignInCancelled)
	default:
		return FailedWithCode(ErrProviderError, err.Error())
	}
}

// Validate enforces the sign-in result invariant: a success carries a
// valid session, a failure carries a message and no session.
func (r Result) Validate() error {
	if r.Success {
		if r.ErrorMessage != "" {
			return NewError(ErrInvalidResult, "successful result carries an error message", nil)
		}
		if r.Session == nil {
			return NewError(ErrInvalidResult, "successful result carries no session", nil)
		}
		return r.Session.Validate()
	}
	if r.Session != nil {
		return NewError(ErrInvalidResult, "failed result carries a session", nil)
	}
	if r.ErrorMessage == "" {
		return NewError(ErrInvalidResult, "failed result carries no error message", nil)
	}
	return nil
}

// Err returns nil for successes and a coded *AuthError for failures.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	code := r.Code
	if code == "" {
		code = ErrProviderError
	}
	return NewError(code, r.ErrorMessage, nil)
}
