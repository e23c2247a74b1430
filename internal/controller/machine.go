// Package controller implements the session controller: a pure state
// machine (Machine) and the event loop that executes its effects
// (Controller).
package controller

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
)

// Success and failure messages owned by the controller.
const (
	MsgLoginSuccess  = "Login successful! Redirecting..."
	MsgSignupSuccess = "Account created successfully! Redirecting..."
	MsgPersistFailed = "Could not save your session. Please try again."

	LabelSigningIn       = "Signing in..."
	LabelCreatingAccount = "Creating account..."
)

// FederatedSuccessMessage is shown after a federated sign-in succeeds.
func FederatedSuccessMessage(providerID string) string {
	return fmt.Sprintf("%s sign-in successful! Redirecting...", auth.ProviderName(providerID))
}

// FederatedLoadingLabel is shown on the federated trigger while loading.
func FederatedLoadingLabel(providerID string) string {
	return fmt.Sprintf("Connecting to %s...", auth.ProviderName(providerID))
}

// Config holds the machine's paths and timings.
type Config struct {
	HomePath      string
	AuthPath      string
	RedirectDelay time.Duration
	ErrorTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		HomePath:      "/",
		AuthPath:      "/auth",
		RedirectDelay: 1500 * time.Millisecond,
		ErrorTimeout:  5 * time.Second,
	}
}

type handlerFunc func(s State, ev Event) (State, []Effect)

// Machine maps (state, event) to (state, effects). It holds no mutable
// state and is safe for concurrent use.
type Machine struct {
	cfg      Config
	handlers map[string]handlerFunc
}

func NewMachine(cfg Config) *Machine {
	m := &Machine{cfg: cfg}
	m.handlers = map[string]handlerFunc{
		EventLoad:            m.onLoad,
		EventSubmitLogin:     m.onSubmitLogin,
		EventSubmitSignup:    m.onSubmitSignup,
		EventFederatedSignIn: m.onFederatedSignIn,
		EventProviderSettled: m.onProviderSettled,
		EventErrorExpired:    m.onErrorExpired,
		EventRedirectDue:     m.onRedirectDue,
		EventSignOut:         m.onSignOut,
		EventToggleForms:     m.onToggleForms,
		EventPersistFailed:   m.onPersistFailed,
		EventSessionChanged:  m.onSessionChanged,
	}
	return m
}

// Handle applies ev to s. Unknown events leave the state unchanged.
func (m *Machine) Handle(s State, ev Event) (State, []Effect) {
	h, ok := m.handlers[ev.Name()]
	if !ok {
		return s, nil
	}
	return h(s.clone(), ev)
}

func (m *Machine) onLoad(s State, ev Event) (State, []Effect) {
	e := ev.(Load)
	if e.Persisted != nil {
		s.Phase = PhaseAuthenticated
		s.Session = e.Persisted.Clone()
		s.Path = m.cfg.HomePath
		return s, []Effect{Navigate{Path: m.cfg.HomePath}}
	}
	s.Phase = PhaseAnonymous
	s.Session = nil
	s.Path = m.cfg.AuthPath
	return s, []Effect{Navigate{Path: m.cfg.AuthPath}, ShowForm{View: s.View}}
}

func (m *Machine) onSubmitLogin(s State, ev Event) (State, []Effect) {
	e := ev.(SubmitLogin)
	if s.Phase != PhaseAnonymous {
		return s, nil
	}
	if msg := ValidateLogin(e.Email, e.Password); msg != "" {
		return m.showError(s, msg)
	}
	return m.begin(s, Request{
		Kind:     RequestSignIn,
		Email:    e.Email,
		Password: e.Password,
		Control:  ControlLogin,
	}, LabelSigningIn)
}

func (m *Machine) onSubmitSignup(s State, ev Event) (State, []Effect) {
	e := ev.(SubmitSignup)
	if s.Phase != PhaseAnonymous {
		return s, nil
	}
	if msg := ValidateSignup(e.Email, e.Password, e.ConfirmPassword); msg != "" {
		return m.showError(s, msg)
	}
	return m.begin(s, Request{
		Kind:     RequestSignUp,
		Email:    e.Email,
		Password: e.Password,
		Control:  ControlSignup,
	}, LabelCreatingAccount)
}

func (m *Machine) onFederatedSignIn(s State, ev Event) (State, []Effect) {
	e := ev.(FederatedSignIn)
	if s.Phase != PhaseAnonymous {
		return s, nil
	}
	return m.begin(s, Request{
		Kind:       RequestFederated,
		ProviderID: e.ProviderID,
		Control:    ControlFor(e.ProviderID),
	}, FederatedLoadingLabel(e.ProviderID))
}

// begin moves to Authenticating with the triggering control loading.
func (m *Machine) begin(s State, req Request, label string) (State, []Effect) {
	s.RequestSeq++
	req.ID = s.RequestSeq

	s.Phase = PhaseAuthenticating
	s.Pending = &req
	s.Loading = &Loading{Control: req.Control, Label: label}

	return s, []Effect{
		SetLoading{Control: req.Control, Label: label},
		Authenticate{Request: req},
	}
}

func (m *Machine) onProviderSettled(s State, ev Event) (State, []Effect) {
	e := ev.(ProviderSettled)
	if s.Phase != PhaseAuthenticating || s.Pending == nil || s.Pending.ID != e.Request.ID {
		return s, nil
	}
	req := *s.Pending
	s.Pending = nil
	s.Loading = nil
	release := ClearLoading{Control: req.Control, Label: req.Control.Label()}

	session, msg := m.settledSession(req, e.Result)
	if session == nil {
		s.Phase = PhaseAnonymous
		s, effects := m.showError(s, msg)
		return s, append(effects, release)
	}

	s.Phase = PhaseAuthenticated
	s.Session = session
	s.Error = nil
	s.Success = successMessage(req)
	s.RedirectSeq++
	s.RedirectPending = true

	return s, []Effect{
		PersistSession{Session: session.Clone()},
		HideMessages{},
		ShowSuccess{Message: s.Success},
		Schedule{After: m.cfg.RedirectDelay, Event: RedirectDue{Seq: s.RedirectSeq}},
		release,
	}
}

// settledSession returns the session to adopt, or nil and the message to
// show. Credential successes without a session get a constructed one.
func (m *Machine) settledSession(req Request, r auth.Result) (*auth.Session, string) {
	if !r.Success {
		msg := r.ErrorMessage
		if msg == "" {
			msg = "Authentication failed"
		}
		return nil, msg
	}
	if r.Session != nil {
		return r.Session.Clone(), ""
	}
	if req.Kind == RequestFederated {
		return nil, auth.ProviderName(req.ProviderID) + " sign-in failed"
	}
	return auth.NewCredentialSession(req.Email), ""
}

func successMessage(req Request) string {
	switch req.Kind {
	case RequestSignUp:
		return MsgSignupSuccess
	case RequestFederated:
		return FederatedSuccessMessage(req.ProviderID)
	default:
		return MsgLoginSuccess
	}
}

func (m *Machine) onErrorExpired(s State, ev Event) (State, []Effect) {
	e := ev.(ErrorExpired)
	if s.Error == nil || s.Error.Seq != e.Seq {
		return s, nil
	}
	s.Error = nil
	return s, []Effect{HideMessages{}}
}

func (m *Machine) onRedirectDue(s State, ev Event) (State, []Effect) {
	e := ev.(RedirectDue)
	if s.Phase != PhaseAuthenticated || !s.RedirectPending || s.RedirectSeq != e.Seq {
		return s, nil
	}
	s.RedirectPending = false
	s.Success = ""
	s.Path = m.cfg.HomePath
	return s, []Effect{HideMessages{}, Navigate{Path: m.cfg.HomePath}}
}

func (m *Machine) onSignOut(s State, _ Event) (State, []Effect) {
	loading := s.Loading

	s.Phase = PhaseAnonymous
	s.Session = nil
	s.Pending = nil
	s.Loading = nil
	s.Error = nil
	s.Success = ""
	s.RedirectPending = false
	s.RedirectSeq++
	s.Path = m.cfg.AuthPath

	effects := []Effect{
		ClearSession{},
		SignOutProvider{},
		HideMessages{},
		Navigate{Path: m.cfg.AuthPath},
	}
	if loading != nil {
		effects = append(effects, ClearLoading{Control: loading.Control, Label: loading.Control.Label()})
	}
	return s, effects
}

func (m *Machine) onToggleForms(s State, _ Event) (State, []Effect) {
	s.View = s.View.Toggle()
	return s, []Effect{ShowForm{View: s.View}}
}

func (m *Machine) onPersistFailed(s State, _ Event) (State, []Effect) {
	if s.Phase != PhaseAuthenticated {
		return s, nil
	}
	s.Phase = PhaseAnonymous
	s.Session = nil
	s.Success = ""
	s.RedirectPending = false
	s.RedirectSeq++

	s, effects := m.showError(s, MsgPersistFailed)
	return s, append([]Effect{ClearSession{}}, effects...)
}

func (m *Machine) onSessionChanged(s State, ev Event) (State, []Effect) {
	e := ev.(SessionChanged)

	switch {
	case e.Session == nil && s.Phase == PhaseAuthenticated:
		s.Phase = PhaseAnonymous
		s.Session = nil
		s.Success = ""
		s.RedirectPending = false
		s.RedirectSeq++
		s.Path = m.cfg.AuthPath
		return s, []Effect{
			SyncSession{},
			HideMessages{},
			Navigate{Path: m.cfg.AuthPath},
		}

	case e.Session != nil && s.Phase == PhaseAnonymous:
		s.Phase = PhaseAuthenticated
		s.Session = e.Session.Clone()
		s.Error = nil
		s.Path = m.cfg.HomePath
		return s, []Effect{
			SyncSession{Session: e.Session.Clone()},
			HideMessages{},
			Navigate{Path: m.cfg.HomePath},
		}

	case e.Session != nil && s.Phase == PhaseAuthenticated && s.Session != nil && s.Session.UID != e.Session.UID:
		s.Session = e.Session.Clone()
		return s, []Effect{SyncSession{Session: e.Session.Clone()}}
	}
	return s, nil
}

// showError replaces any visible message with msg and schedules its expiry.
func (m *Machine) showError(s State, msg string) (State, []Effect) {
	s.ErrorSeq++
	s.Error = &ErrorFeedback{Message: msg, Seq: s.ErrorSeq}
	s.Success = ""
	return s, []Effect{
		HideMessages{},
		ShowError{Message: msg},
		Schedule{After: m.cfg.ErrorTimeout, Event: ErrorExpired{Seq: s.ErrorSeq}},
	}
}
