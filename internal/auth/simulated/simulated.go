// Package simulated provides an in-process auth.Provider with fixed latency
// and scripted failures, for demos and tests.
package simulated

import (
	"context"
	"time"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
	"github.com/felixgeelhaar/mars-auth/internal/log"
)

// DefaultLatency is how long every simulated call takes to settle.
const DefaultLatency = 1500 * time.Millisecond

// Fixture addresses with scripted outcomes.
const (
	ErrorEmail    = "error@test.com"
	ExistingEmail = "existing@test.com"
)

// Google fixture identity returned by federated sign-in.
const (
	GoogleEmail       = "user@gmail.com"
	GoogleDisplayName = "Google User"
	GooglePhotoURL    = "https://via.placeholder.com/40"
)

// Options control latency and failure predicates. Nil predicates use the
// fixture defaults. A zero Latency settles immediately; callers wanting the
// default pass DefaultLatency.
type Options struct {
	Latency           time.Duration
	RejectCredentials func(email, password string) bool
	EmailTaken        func(email string) bool
	FederatedFails    func(providerID string) bool
	Logger            *log.Logger
}

func defaultRejectCredentials(email, _ string) bool { return email == ErrorEmail }
func defaultEmailTaken(email string) bool         { return email == ExistingEmail }
func defaultFederatedFails(string) bool           { return false }

// Provider is a simulated auth.Provider: a Composite over Credentials and a
// simulated Google Federator.
type Provider struct {
	*auth.Composite
	Credentials *Credentials
}

// New returns a Provider with opts applied.
func New(opts Options) *Provider {
	opts = withDefaults(opts)
	creds := &Credentials{opts: opts}
	registry := auth.NewRegistry(NewFederator(auth.ProviderGoogle, opts))
	return &Provider{
		Composite:   auth.NewComposite(creds, registry, auth.WithLogger(opts.Logger)),
		Credentials: creds,
	}
}

func withDefaults(opts Options) Options {
	if opts.RejectCredentials == nil {
		opts.RejectCredentials = defaultRejectCredentials
	}
	if opts.EmailTaken == nil {
		opts.EmailTaken = defaultEmailTaken
	}
	if opts.FederatedFails == nil {
		opts.FederatedFails = defaultFederatedFails
	}
	if opts.Logger == nil {
		opts.Logger = log.DefaultLogger()
	}
	return opts
}

// Credentials is the simulated auth.CredentialAuthenticator.
type Credentials struct {
	opts Options
}

// NewCredentials returns a CredentialAuthenticator for use in a custom
// Composite.
func NewCredentials(opts Options) *Credentials {
	return &Credentials{opts: withDefaults(opts)}
}

// SignIn rejects credentials matching RejectCredentials. A rejected email
// is rejected for sign-up as well.
func (c *Credentials) SignIn(ctx context.Context, email, password string) auth.Result {
	if err := wait(ctx, c.opts.Latency); err != nil {
		return auth.FromError(err)
	}
	if c.opts.RejectCredentials(email, password) {
		return auth.FailedWithCode(auth.ErrInvalidCredentials, auth.MessageInvalidCredentials)
	}
	c.opts.Logger.Debug("simulated sign-in accepted", "email", email)
	return auth.Succeeded(auth.NewCredentialSession(email))
}

func (c *Credentials) SignUp(ctx context.Context, email, password string) auth.Result {
	if err := wait(ctx, c.opts.Latency); err != nil {
		return auth.FromError(err)
	}
	if c.opts.RejectCredentials(email, password) {
		return auth.FailedWithCode(auth.ErrInvalidCredentials, auth.MessageInvalidCredentials)
	}
	if c.opts.EmailTaken(email) {
		return auth.FailedWithCode(auth.ErrEmailAlreadyExists, auth.MessageEmailAlreadyExists)
	}
	c.opts.Logger.Debug("simulated sign-up accepted", "email", email)
	return auth.Succeeded(auth.NewCredentialSession(email))
}

func (c *Credentials) SignOut(ctx context.Context) error {
	return nil
}

// Federator simulates a federated identity provider.
type Federator struct {
	id   string
	opts Options
}

func NewFederator(id string, opts Options) *Federator {
	return &Federator{id: id, opts: withDefaults(opts)}
}

func (f *Federator) ID() string   { return f.id }
func (f *Federator) Name() string { return auth.ProviderName(f.id) }

func (f *Federator) SignIn(ctx context.Context) auth.Result {
	if err := wait(ctx, f.opts.Latency); err != nil {
		return auth.FromError(err)
	}
	if f.opts.FederatedFails(f.id) {
		return auth.Failed(f.Name() + " sign-in failed")
	}
	session := auth.NewFederatedSession(f.id, GoogleEmail, GoogleDisplayName, GooglePhotoURL)
	if session == nil {
		return auth.FailedWithCode(auth.ErrUnsupportedProvider, f.Name()+" sign-in is not supported")
	}
	return auth.Succeeded(session)
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
