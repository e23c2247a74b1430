package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "bad value")

	if err.Code != ErrCodeConfigInvalid {
		t.Errorf("expected code %s, got %s", ErrCodeConfigInvalid, err.Code)
	}
	if err.Message != "bad value" {
		t.Errorf("expected message 'bad value', got '%s'", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := Wrap(ErrCodeStorageWrite, "write failed", cause)

	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}

	var appErr *AppError
	if !errors.As(fmt.Errorf("outer: %w", err), &appErr) {
		t.Fatal("errors.As should find the AppError")
	}
	if appErr.Code != ErrCodeStorageWrite {
		t.Errorf("code = %s", appErr.Code)
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name  string
		err   *AppError
		wants []string
	}{
		{
			name:  "simple",
			err:   New(ErrCodeConfigRead, "cannot read"),
			wants: []string{"[CONFIG-001]", "cannot read"},
		},
		{
			name:  "with cause",
			err:   Wrap(ErrCodeStorageRead, "read failed", errors.New("eof")),
			wants: []string{"STORAGE-002", "read failed: eof"},
		},
		{
			name:  "with suggestions",
			err:   New(ErrCodeSessionCorrupt, "corrupt").WithSuggestions("first", "second"),
			wants: []string{"Suggestions:", "• first", "• second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, want := range tt.wants {
				if !strings.Contains(got, want) {
					t.Errorf("error string %q should contain %q", got, want)
				}
			}
		})
	}
}

func TestWithSuggestion(t *testing.T) {
	err := New(ErrCodeProviderConfig, "missing url").
		WithSuggestion("set provider.platform_url")

	if len(err.Suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(err.Suggestions))
	}
	if got := err.ErrorSuggestions(); got[0] != "set provider.platform_url" {
		t.Errorf("suggestion = %q", got[0])
	}
	if err.ErrorCode() != "PROVIDER-002" {
		t.Errorf("ErrorCode() = %q", err.ErrorCode())
	}
}

func TestHasCode(t *testing.T) {
	inner := NewSessionCorruptError(errors.New("unexpected EOF"))
	wrapped := fmt.Errorf("restore: %w", inner)

	if !HasCode(wrapped, ErrCodeSessionCorrupt) {
		t.Error("HasCode should see through fmt wrapping")
	}
	if HasCode(wrapped, ErrCodeSessionPersist) {
		t.Error("HasCode matched the wrong code")
	}
	if HasCode(errors.New("plain"), ErrCodeSessionCorrupt) {
		t.Error("HasCode matched a plain error")
	}
	if HasCode(nil, ErrCodeSessionCorrupt) {
		t.Error("HasCode matched nil")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{"config parse", NewConfigParseError("/tmp/c.yaml", errors.New("yaml")), ErrCodeConfigParse},
		{"config invalid", NewConfigInvalidError("provider.kind"), ErrCodeConfigInvalid},
		{"storage", NewStorageError(ErrCodeStorageOpen, "mars_user", errors.New("x")), ErrCodeStorageOpen},
		{"unknown provider", NewUnknownProviderError("ldap"), ErrCodeProviderUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if len(tt.err.Suggestions) == 0 {
				t.Error("constructor should add suggestions")
			}
		})
	}
}
