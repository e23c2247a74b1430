package auth

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/mars-auth/internal/log"
)

// Composite is a Provider assembled from a credential backend and a
// registry of federators. It tracks the last settled session for
// CurrentSession.
type Composite struct {
	credentials CredentialAuthenticator
	federators  *Registry
	logger      *log.Logger

	mu      sync.RWMutex
	current *Session
}

// CompositeOption configures a Composite.
type CompositeOption func(*Composite)

// WithLogger sets the logger used for backend sign-out failures and
// malformed results.
func WithLogger(logger *log.Logger) CompositeOption {
	return func(c *Composite) {
		c.logger = logger
	}
}

// NewComposite builds a Provider. federators may be nil.
func NewComposite(credentials CredentialAuthenticator, federators *Registry, opts ...CompositeOption) *Composite {
	if federators == nil {
		federators = NewRegistry()
	}
	c := &Composite{
		credentials: credentials,
		federators:  federators,
		logger:      log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Federators returns the registry used for federated sign-in.
func (c *Composite) Federators() *Registry {
	return c.federators
}

func (c *Composite) SignInWithCredentials(ctx context.Context, email, password string) Result {
	return c.settle(c.credentials.SignIn(ctx, email, password), func() *Session {
		return NewCredentialSession(email)
	})
}

func (c *Composite) SignUpWithCredentials(ctx context.Context, email, password string) Result {
	return c.settle(c.credentials.SignUp(ctx, email, password), func() *Session {
		return NewCredentialSession(email)
	})
}

func (c *Composite) SignInWithFederatedProvider(ctx context.Context, providerID string) Result {
	f, ok := c.federators.Get(providerID)
	if !ok {
		return unknownProviderResult(providerID)
	}
	// Federators must report the identity; there is no email to build a
	// session from.
	return c.settle(f.SignIn(ctx), nil)
}

// SignOut forgets the current session and asks the credential backend to
// end its session. Backend failures are logged and do not fail the call.
func (c *Composite) SignOut(ctx context.Context) Result {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()

	if err := c.credentials.SignOut(ctx); err != nil {
		c.logger.WithError(err).Warn("backend sign-out failed")
	}
	return Result{Success: true}
}

func (c *Composite) CurrentSession() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Clone()
}

// Restore seeds CurrentSession from a persisted record.
func (c *Composite) Restore(session *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = session.Clone()
}

// settle fills in a missing session on success, enforces the Result
// invariant and records the session.
func (c *Composite) settle(r Result, construct func() *Session) Result {
	if r.Success && r.Session == nil && r.ErrorMessage == "" && construct != nil {
		r.Session = construct()
	}
	if err := r.Validate(); err != nil {
		c.logger.WithError(err).Error("provider returned a malformed result")
		return FailedWithCode(ErrProviderError, "Authentication failed")
	}
	if r.Success {
		c.mu.Lock()
		c.current = r.Session.Clone()
		c.mu.Unlock()
	}
	return r
}
