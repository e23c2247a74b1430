package controller

import (
	"github.com/felixgeelhaar/mars-auth/internal/auth"
)

// Phase is the session state machine position.
type Phase int

const (
	PhaseAnonymous Phase = iota
	PhaseAuthenticating
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseAnonymous:
		return "anonymous"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Status is the externally reported state. AuthError is not a resting
// phase: a failed attempt settles in Anonymous with the error visible.
type Status string

const (
	StatusAnonymous      Status = "anonymous"
	StatusAuthenticating Status = "authenticating"
	StatusAuthenticated  Status = "authenticated"
	StatusAuthError      Status = "auth-error"
)

// FormView selects which credential form is visible.
type FormView string

const (
	ViewLogin  FormView = "login"
	ViewSignup FormView = "signup"
)

// Toggle returns the other form.
func (v FormView) Toggle() FormView {
	if v == ViewSignup {
		return ViewLogin
	}
	return ViewSignup
}

// Control identifies a submit control whose label is swapped while loading.
type Control string

const (
	ControlLogin  Control = "login-btn"
	ControlSignup Control = "signup-btn"
	ControlGoogle Control = "google-signin"
)

// ControlFor returns the trigger control of a federated provider.
func ControlFor(providerID string) Control {
	if providerID == auth.ProviderGoogle {
		return ControlGoogle
	}
	return Control(providerID + "-signin")
}

// Label returns the idle label of a control.
func (c Control) Label() string {
	switch c {
	case ControlLogin:
		return "Sign In"
	case ControlSignup:
		return "Create Account"
	case ControlGoogle:
		return "Continue with Google"
	default:
		id := string(c)
		if n := len(id) - len("-signin"); n > 0 {
			id = id[:n]
		}
		return "Continue with " + auth.ProviderName(id)
	}
}

// Loading is the busy indication on one control.
type Loading struct {
	Control Control
	Label   string
}

// ErrorFeedback is the visible error and the sequence number of the timer
// that may hide it.
type ErrorFeedback struct {
	Message string
	Seq     uint64
}

// State is everything the controller knows. It is a value: handlers return
// modified copies.
type State struct {
	Phase   Phase
	Session *auth.Session
	View    FormView
	Path    string

	Loading *Loading
	Error   *ErrorFeedback
	Success string

	// Pending is the in-flight provider request while Authenticating.
	Pending *Request

	RequestSeq      uint64
	ErrorSeq        uint64
	RedirectSeq     uint64
	RedirectPending bool
}

// Initial is the state before load.
func Initial() State {
	return State{Phase: PhaseAnonymous, View: ViewLogin}
}

// Status folds the visible error into the reported state.
func (s State) Status() Status {
	switch s.Phase {
	case PhaseAuthenticating:
		return StatusAuthenticating
	case PhaseAuthenticated:
		return StatusAuthenticated
	}
	if s.Error != nil {
		return StatusAuthError
	}
	return StatusAnonymous
}

// Busy reports whether submit controls are disabled.
func (s State) Busy() bool {
	return s.Phase == PhaseAuthenticating
}

// clone copies pointer fields so handlers never share them with the caller.
func (s State) clone() State {
	c := s
	c.Session = s.Session.Clone()
	if s.Loading != nil {
		l := *s.Loading
		c.Loading = &l
	}
	if s.Error != nil {
		e := *s.Error
		c.Error = &e
	}
	if s.Pending != nil {
		p := *s.Pending
		c.Pending = &p
	}
	return c
}
