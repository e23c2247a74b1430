package controller

import (
	"time"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
)

// Effect is an instruction for the runtime. The machine never performs
// I/O itself.
type Effect interface {
	Kind() string
}

type SetLoading struct {
	Control Control
	Label   string
}

// ClearLoading restores Control to its idle Label and re-enables it.
type ClearLoading struct {
	Control Control
	Label   string
}

// HideMessages hides both the error and the success region.
type HideMessages struct{}

type ShowError struct {
	Message string
}

type ShowSuccess struct {
	Message string
}

// Authenticate starts Request on the provider off the event loop.
type Authenticate struct {
	Request Request
}

type PersistSession struct {
	Session *auth.Session
}

type ClearSession struct{}

type SignOutProvider struct{}

// SyncSession adopts a session changed outside this process without
// writing it back. Nil forgets the session.
type SyncSession struct {
	Session *auth.Session
}

// Schedule posts Event after the delay.
type Schedule struct {
	After time.Duration
	Event Event
}

type Navigate struct {
	Path string
}

type ShowForm struct {
	View FormView
}

func (SetLoading) Kind() string      { return "set-loading" }
func (ClearLoading) Kind() string    { return "clear-loading" }
func (HideMessages) Kind() string    { return "hide-messages" }
func (ShowError) Kind() string       { return "show-error" }
func (ShowSuccess) Kind() string     { return "show-success" }
func (Authenticate) Kind() string    { return "authenticate" }
func (PersistSession) Kind() string  { return "persist-session" }
func (ClearSession) Kind() string    { return "clear-session" }
func (SignOutProvider) Kind() string { return "sign-out-provider" }
func (SyncSession) Kind() string     { return "sync-session" }
func (Schedule) Kind() string        { return "schedule" }
func (Navigate) Kind() string        { return "navigate" }
func (ShowForm) Kind() string        { return "show-form" }

func effectKinds(effects []Effect) []string {
	kinds := make([]string, len(effects))
	for i, e := range effects {
		kinds[i] = e.Kind()
	}
	return kinds
}
