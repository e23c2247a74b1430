// Package local is an offline credential backend: accounts live in the
// client's own storage with bcrypt-hashed passwords.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
	"github.com/felixgeelhaar/mars-auth/internal/log"
	"github.com/felixgeelhaar/mars-auth/internal/storage"
)

// AccountsKey is the storage key holding the account table.
const AccountsKey = "mars_accounts"

// Account is one registered user.
type Account struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Authenticator implements auth.CredentialAuthenticator over storage.
type Authenticator struct {
	store  storage.Storage
	cost   int
	logger *log.Logger
	now    func() time.Time

	mu sync.Mutex
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(a *Authenticator) { a.cost = cost }
}

func WithLogger(logger *log.Logger) Option {
	return func(a *Authenticator) { a.logger = logger }
}

func New(store storage.Storage, opts ...Option) *Authenticator {
	a := &Authenticator{
		store:  store,
		cost:   bcrypt.DefaultCost,
		logger: log.DefaultLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *Authenticator) SignIn(ctx context.Context, email, password string) auth.Result {
	if err := ctx.Err(); err != nil {
		return auth.FromError(err)
	}

	a.mu.Lock()
	accounts, err := a.load()
	a.mu.Unlock()
	if err != nil {
		return auth.FromError(err)
	}

	acct, ok := accounts[normalizeEmail(email)]
	if !ok {
		return auth.FailedWithCode(auth.ErrInvalidCredentials, auth.MessageInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		a.logger.Debug("local sign-in rejected", "email", acct.Email)
		return auth.FailedWithCode(auth.ErrInvalidCredentials, auth.MessageInvalidCredentials)
	}

	return auth.Succeeded(sessionFor(acct))
}

func (a *Authenticator) SignUp(ctx context.Context, email, password string) auth.Result {
	if err := ctx.Err(); err != nil {
		return auth.FromError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return auth.FromError(auth.WrapError(auth.ErrProviderError, "Could not create account", err, nil))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	accounts, err := a.load()
	if err != nil {
		return auth.FromError(err)
	}

	key := normalizeEmail(email)
	if _, exists := accounts[key]; exists {
		return auth.FailedWithCode(auth.ErrEmailAlreadyExists, auth.MessageEmailAlreadyExists)
	}

	acct := Account{
		UID:          "user_" + uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    a.now().UTC(),
	}
	accounts[key] = acct
	if err := a.save(accounts); err != nil {
		return auth.FromError(err)
	}

	a.logger.Info("local account created", "uid", acct.UID)
	return auth.Succeeded(sessionFor(acct))
}

// SignOut has nothing to revoke for local accounts.
func (a *Authenticator) SignOut(ctx context.Context) error {
	return nil
}

func sessionFor(acct Account) *auth.Session {
	return &auth.Session{
		Email:       acct.Email,
		DisplayName: auth.DisplayNameFromEmail(acct.Email),
		UID:         acct.UID,
		AuthMethod:  auth.MethodEmail,
	}
}

func (a *Authenticator) load() (map[string]Account, error) {
	raw, ok, err := a.store.GetItem(AccountsKey)
	if err != nil {
		return nil, auth.WrapError(auth.ErrProviderError, "Account store unavailable", err, nil)
	}
	accounts := make(map[string]Account)
	if !ok {
		return accounts, nil
	}
	if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
		return nil, auth.WrapError(auth.ErrProviderError, "Account store is corrupt", err, nil)
	}
	return accounts, nil
}

func (a *Authenticator) save(accounts map[string]Account) error {
	data, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}
	if err := a.store.SetItem(AccountsKey, string(data)); err != nil {
		return auth.WrapError(auth.ErrProviderError, "Could not save account", err, nil)
	}
	return nil
}
