// Package auth defines the authentication capability used by the session
// controller.
//
// A Provider answers four questions asynchronously (sign in with
// credentials, sign up, federated sign-in, sign out) and one synchronously
// (who is signed in right now). Every answer is a Result: either a Session
// or a human-readable error message, never both.
//
// Providers are usually built as a Composite from a CredentialAuthenticator
// and a Registry of Federators, so credential and federated backends can be
// mixed (for example a local account store with Google OIDC).
package auth

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Method records how a session was established.
type Method string

const (
	MethodEmail  Method = "email"
	MethodGoogle Method = "google"
)

// ProviderGoogle is the federated provider id for Google sign-in.
const ProviderGoogle = "google"

// federatedMethods maps the federated provider ids a session can record
// to their Method. Registries only accept these ids.
var federatedMethods = map[string]Method{
	ProviderGoogle: MethodGoogle,
}

// MethodFor returns the Method recorded for sessions from providerID.
func MethodFor(providerID string) (Method, bool) {
	m, ok := federatedMethods[providerID]
	return m, ok
}

// Known reports whether m is a Method this package declares.
func (m Method) Known() bool {
	if m == MethodEmail {
		return true
	}
	for _, fm := range federatedMethods {
		if fm == m {
			return true
		}
	}
	return false
}

// Session is the authenticated identity. Its JSON form is the persisted
// record format.
type Session struct {
	Email       string `json:"email" yaml:"email"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	UID         string `json:"uid" yaml:"uid"`
	AuthMethod  Method `json:"authMethod" yaml:"authMethod"`
	PhotoURL    string `json:"photoURL,omitempty" yaml:"photoURL,omitempty"`
}

// Validate checks the fields every session must carry.
func (s *Session) Validate() error {
	if s == nil {
		return NewError(ErrSessionInvalid, "session is nil", nil)
	}
	var missing []string
	if s.Email == "" {
		missing = append(missing, "email")
	}
	if s.UID == "" {
		missing = append(missing, "uid")
	}
	if s.AuthMethod == "" {
		missing = append(missing, "authMethod")
	}
	if len(missing) > 0 {
		return NewError(ErrSessionInvalid, "session is missing required fields", map[string]interface{}{
			"fields": missing,
		})
	}
	if !s.AuthMethod.Known() {
		return NewError(ErrSessionInvalid, "session has an unknown auth method", map[string]interface{}{
			"authMethod": string(s.AuthMethod),
		})
	}
	return nil
}

// Clone returns a copy, or nil for a nil session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// DisplayNameFromEmail returns the local part of an email address.
func DisplayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// NewCredentialSession builds the session for an email/password sign-in.
func NewCredentialSession(email string) *Session {
	return &Session{
		Email:       email,
		DisplayName: DisplayNameFromEmail(email),
		UID:         "user_" + uuid.NewString(),
		AuthMethod:  MethodEmail,
	}
}

// NewFederatedSession builds the session for a federated sign-in. An empty
// displayName falls back to the email's local part. It returns nil when
// providerID has no declared Method.
func NewFederatedSession(providerID, email, displayName, photoURL string) *Session {
	method, ok := MethodFor(providerID)
	if !ok {
		return nil
	}
	if displayName == "" {
		displayName = DisplayNameFromEmail(email)
	}
	return &Session{
		Email:       email,
		DisplayName: displayName,
		UID:         providerID + "_user_" + uuid.NewString(),
		AuthMethod:  method,
		PhotoURL:    photoURL,
	}
}

// Provider is the capability the session controller talks to.
//
// The three sign-in operations and SignOut block until settled and must
// honor ctx cancellation. Implementations must be safe for concurrent use.
type Provider interface {
	SignInWithCredentials(ctx context.Context, email, password string) Result
	SignUpWithCredentials(ctx context.Context, email, password string) Result
	SignInWithFederatedProvider(ctx context.Context, providerID string) Result
	// SignOut always succeeds locally; backend failures are logged only.
	SignOut(ctx context.Context) Result
	// CurrentSession returns the last known session or nil. It never blocks.
	CurrentSession() *Session
}

// CredentialAuthenticator performs email/password sign-in and sign-up.
// Returned results need not set Session on success; Composite constructs
// one from the email.
type CredentialAuthenticator interface {
	SignIn(ctx context.Context, email, password string) Result
	SignUp(ctx context.Context, email, password string) Result
	SignOut(ctx context.Context) error
}

// Federator performs sign-in against one external identity provider.
type Federator interface {
	// ID is the provider id used in SignInWithFederatedProvider.
	ID() string
	// Name is the human-readable provider name ("Google").
	Name() string
	SignIn(ctx context.Context) Result
}

var knownProviderNames = map[string]string{
	ProviderGoogle: "Google",
	"github":       "GitHub",
	"microsoft":    "Microsoft",
}

// ProviderName returns a display name for a federated provider id.
func ProviderName(providerID string) string {
	if name, ok := knownProviderNames[strings.ToLower(providerID)]; ok {
		return name
	}
	first, size := utf8.DecodeRuneInString(providerID)
	if size == 0 || first == utf8.RuneError {
		return providerID
	}
	return string(unicode.ToUpper(first)) + providerID[size:]
}

func unknownProviderResult(providerID string) Result {
	return FailedWithCode(ErrProviderNotFound, fmt.Sprintf("Unknown sign-in provider: %s", providerID))
}
