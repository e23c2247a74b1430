package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
	"github.com/felixgeelhaar/mars-auth/internal/log"
	"github.com/felixgeelhaar/mars-auth/internal/storage"
)

// TokenKey is the storage key for the platform access token.
const TokenKey = "mars_platform_token"

type storedToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Authenticator implements auth.CredentialAuthenticator against the
// platform API. Access tokens are kept in storage so a later process can
// log out.
type Authenticator struct {
	client *Client
	store  storage.Storage
	logger *log.Logger

	mu sync.Mutex
}

// NewAuthenticator wraps client. store may be nil, in which case tokens
// are not persisted.
func NewAuthenticator(client *Client, store storage.Storage, logger *log.Logger) *Authenticator {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Authenticator{client: client, store: store, logger: logger}
}

func (a *Authenticator) SignIn(ctx context.Context, email, password string) auth.Result {
	resp, err := a.client.Login(ctx, email, password)
	if err != nil {
		return a.fail("login", err)
	}
	return a.succeed(resp, email)
}

func (a *Authenticator) SignUp(ctx context.Context, email, password string) auth.Result {
	resp, err := a.client.Register(ctx, auth.DisplayNameFromEmail(email), email, password)
	if err != nil {
		return a.fail("register", err)
	}
	return a.succeed(resp, email)
}

// SignOut revokes the stored token, if any, and forgets it locally even
// when the server call fails.
func (a *Authenticator) SignOut(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	tok, err := a.loadToken()
	if err != nil || tok == nil {
		return err
	}

	revokeErr := a.client.Logout(ctx, tok.AccessToken)
	if a.store != nil {
		if err := a.store.RemoveItem(TokenKey); err != nil {
			return err
		}
	}
	return revokeErr
}

func (a *Authenticator) succeed(resp *LoginResponse, email string) auth.Result {
	if err := a.saveToken(resp); err != nil {
		a.logger.WithError(err).Warn("failed to persist platform token")
	}

	user := resp.User
	if user.Email == "" {
		user.Email = email
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.Username
	}
	if name == "" {
		name = auth.DisplayNameFromEmail(user.Email)
	}
	uid := user.ID
	if uid == "" {
		// Composite builds the session when the API omits the user.
		return auth.Succeeded(nil)
	}
	return auth.Succeeded(&auth.Session{
		Email:       user.Email,
		DisplayName: name,
		UID:         "user_" + uid,
		AuthMethod:  auth.MethodEmail,
		PhotoURL:    user.AvatarURL,
	})
}

// fail maps API errors onto auth failure codes. 401 and 409 use the fixed
// vocabulary; anything else carries the server text verbatim.
func (a *Authenticator) fail(op string, err error) auth.Result {
	a.logger.WithError(err).Debug("platform request failed", "op", op)

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized:
			return auth.FailedWithCode(auth.ErrInvalidCredentials, auth.MessageInvalidCredentials)
		case http.StatusConflict:
			return auth.FailedWithCode(auth.ErrEmailAlreadyExists, auth.MessageEmailAlreadyExists)
		default:
			return auth.FailedWithCode(auth.ErrProviderError, apiErr.Message)
		}
	}
	return auth.FromError(err)
}

func (a *Authenticator) saveToken(resp *LoginResponse) error {
	if a.store == nil || resp.AccessToken == "" {
		return nil
	}
	data, err := json.Marshal(storedToken{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
	})
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.SetItem(TokenKey, string(data))
}

func (a *Authenticator) loadToken() (*storedToken, error) {
	if a.store == nil {
		return nil, nil
	}
	raw, ok, err := a.store.GetItem(TokenKey)
	if err != nil || !ok {
		return nil, err
	}
	var tok storedToken
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}
