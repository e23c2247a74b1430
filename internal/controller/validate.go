package controller

import "unicode/utf8"

// User-facing validation messages.
const (
	MsgFillAllFields    = "Please fill in all fields"
	MsgPasswordMismatch = "Passwords do not match"
	MsgPasswordTooShort = "Password must be at least 6 characters"
)

// MinPasswordLength is counted in characters, not bytes.
const MinPasswordLength = 6

// ValidateLogin returns the error message for a login submission, or "".
func ValidateLogin(email, password string) string {
	if email == "" || password == "" {
		return MsgFillAllFields
	}
	return ""
}

// ValidateSignup checks, in order: missing fields, mismatch, length.
func ValidateSignup(email, password, confirm string) string {
	if email == "" || password == "" || confirm == "" {
		return MsgFillAllFields
	}
	if password != confirm {
		return MsgPasswordMismatch
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return MsgPasswordTooShort
	}
	return ""
}
