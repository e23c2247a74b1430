package controller

import "github.com/felixgeelhaar/mars-auth/internal/auth"

// Event names, used as handler table keys.
const (
	EventLoad            = "load"
	EventSubmitLogin     = "submit-login"
	EventSubmitSignup    = "submit-signup"
	EventFederatedSignIn = "federated-sign-in"
	EventProviderSettled = "provider-settled"
	EventErrorExpired    = "error-expired"
	EventRedirectDue     = "redirect-due"
	EventSignOut         = "sign-out"
	EventToggleForms     = "toggle-forms"
	EventPersistFailed   = "persist-failed"
	EventSessionChanged  = "session-changed"
)

// Event is an input to the machine.
type Event interface {
	Name() string
}

// Load starts the controller. Persisted is the restored record, if any.
type Load struct {
	Persisted *auth.Session
}

type SubmitLogin struct {
	Email    string
	Password string
}

type SubmitSignup struct {
	Email           string
	Password        string
	ConfirmPassword string
}

type FederatedSignIn struct {
	ProviderID string
}

// ProviderSettled carries the outcome of a provider call back into the loop.
type ProviderSettled struct {
	Request Request
	Result  auth.Result
}

// ErrorExpired fires when the error shown with sequence Seq times out.
type ErrorExpired struct {
	Seq uint64
}

// RedirectDue fires when the post-success delay for redirect Seq elapses.
type RedirectDue struct {
	Seq uint64
}

type SignOut struct{}

type ToggleForms struct{}

// PersistFailed reports that the session record could not be written.
type PersistFailed struct {
	Err error
}

// SessionChanged reports the record as changed by another process. Session
// is nil when the record was removed.
type SessionChanged struct {
	Session *auth.Session
}

func (Load) Name() string            { return EventLoad }
func (SubmitLogin) Name() string     { return EventSubmitLogin }
func (SubmitSignup) Name() string    { return EventSubmitSignup }
func (FederatedSignIn) Name() string { return EventFederatedSignIn }
func (ProviderSettled) Name() string { return EventProviderSettled }
func (ErrorExpired) Name() string    { return EventErrorExpired }
func (RedirectDue) Name() string     { return EventRedirectDue }
func (SignOut) Name() string         { return EventSignOut }
func (ToggleForms) Name() string     { return EventToggleForms }
func (PersistFailed) Name() string   { return EventPersistFailed }
func (SessionChanged) Name() string  { return EventSessionChanged }
