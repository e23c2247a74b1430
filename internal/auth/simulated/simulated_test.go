package simulated

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
)

func fast() Options {
	return Options{Latency: 0}
}

func TestProviderSatisfiesInterface(t *testing.T) {
	var _ auth.Provider = New(fast())
}

func TestSignInFixtures(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		wantOK   bool
		wantCode string
		wantMsg  string
	}{
		{"regular user", "alice@example.com", true, "", ""},
		{"error fixture", ErrorEmail, false, auth.ErrInvalidCredentials, "Invalid credentials"},
		{"existing fixture signs in", ExistingEmail, true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(fast())
			r := p.SignInWithCredentials(context.Background(), tt.email, "secret1")

			assert.Equal(t, tt.wantOK, r.Success)
			if tt.wantOK {
				require.NotNil(t, r.Session)
				assert.Equal(t, tt.email, r.Session.Email)
				assert.Equal(t, auth.MethodEmail, r.Session.AuthMethod)
				assert.True(t, strings.HasPrefix(r.Session.UID, "user_"))
				return
			}
			assert.Equal(t, tt.wantCode, r.Code)
			assert.Equal(t, tt.wantMsg, r.ErrorMessage)
			assert.Nil(t, p.CurrentSession())
		})
	}
}

func TestSignUpFixtures(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantOK  bool
		wantMsg string
	}{
		{"new user", "bob@example.com", true, ""},
		{"existing email", ExistingEmail, false, "Email already exists"},
		{"error fixture", ErrorEmail, false, "Invalid credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(fast()).SignUpWithCredentials(context.Background(), tt.email, "secret1")
			assert.Equal(t, tt.wantOK, r.Success)
			assert.Equal(t, tt.wantMsg, r.ErrorMessage)
		})
	}
}

func TestGoogleSignIn(t *testing.T) {
	p := New(fast())
	r := p.SignInWithFederatedProvider(context.Background(), auth.ProviderGoogle)

	require.True(t, r.Success)
	assert.Equal(t, GoogleEmail, r.Session.Email)
	assert.Equal(t, GoogleDisplayName, r.Session.DisplayName)
	assert.Equal(t, GooglePhotoURL, r.Session.PhotoURL)
	assert.Equal(t, auth.MethodGoogle, r.Session.AuthMethod)
	assert.True(t, strings.HasPrefix(r.Session.UID, "google_user_"))
	assert.Equal(t, r.Session.UID, p.CurrentSession().UID)
}

func TestCustomPredicates(t *testing.T) {
	p := New(Options{
		RejectCredentials: func(email, password string) bool { return password != "letmein" },
		EmailTaken:        func(email string) bool { return strings.HasSuffix(email, "@taken.io") },
		FederatedFails:    func(string) bool { return true },
	})
	ctx := context.Background()

	assert.False(t, p.SignInWithCredentials(ctx, "a@b.c", "wrong").Success)
	assert.True(t, p.SignInWithCredentials(ctx, "a@b.c", "letmein").Success)
	assert.Equal(t, auth.MessageEmailAlreadyExists, p.SignUpWithCredentials(ctx, "x@taken.io", "letmein").ErrorMessage)

	f := NewFederator(auth.ProviderGoogle, Options{FederatedFails: func(string) bool { return true }})
	r := f.SignIn(ctx)
	assert.False(t, r.Success)
	assert.Equal(t, "Google sign-in failed", r.ErrorMessage)
	assert.Equal(t, auth.ErrProviderError, r.Code)

	other := NewFederator("github", Options{}).SignIn(ctx)
	assert.False(t, other.Success)
	assert.Equal(t, auth.ErrUnsupportedProvider, other.Code)
	assert.Nil(t, other.Session)
}

func TestLatencyHonorsContext(t *testing.T) {
	creds := NewCredentials(Options{Latency: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	r := creds.SignIn(ctx, "alice@example.com", "secret1")
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, r.Success)
	assert.Equal(t, auth.MessageSignInCancelled, r.ErrorMessage)
}

func TestLatencyIsApplied(t *testing.T) {
	creds := NewCredentials(Options{Latency: 20 * time.Millisecond})

	start := time.Now()
	r := creds.SignIn(context.Background(), "alice@example.com", "secret1")
	assert.True(t, r.Success)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestDefaultLatency(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, DefaultLatency)
}
