// Package oidc implements federated sign-in with OpenID Connect.
//
// The flow is the native-app variant of the authorization code flow:
//  1. Discover the issuer's endpoints
//  2. Start a loopback HTTP listener for the redirect
//  3. Open the authorization URL (with state and a PKCE S256 challenge)
//  4. Wait for the redirect, check state, exchange the code with the verifier
//  5. Verify the ID token and map its claims onto an auth.Session
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
	"github.com/felixgeelhaar/mars-auth/internal/log"
)

const callbackPath = "/callback"

// Config holds OAuth2/OIDC client configuration.
type Config struct {
	// ID is the provider id used for SignInWithFederatedProvider.
	// Default: "google"
	ID string

	// Issuer is the OIDC issuer URL.
	// Example: "https://accounts.google.com"
	Issuer string

	ClientID     string
	ClientSecret string

	// RedirectPort is the loopback port. Zero picks a free port; some
	// identity providers require a fixed, pre-registered one.
	RedirectPort int

	// Scopes to request from the IdP.
	// Default: ["openid", "email", "profile"]
	Scopes []string

	// OpenURL presents the authorization URL to the user. Default opens
	// the system browser.
	OpenURL func(url string) error

	// HTTPClient is used for discovery, token exchange and key fetches.
	HTTPClient *http.Client
}

// Federator is an auth.Federator backed by an OIDC identity provider.
type Federator struct {
	cfg    Config
	logger *log.Logger

	mu       sync.Mutex
	provider *oidc.Provider
}

// New validates cfg. Discovery happens on first sign-in so that a missing
// network does not prevent start-up.
func New(cfg Config, logger *log.Logger) (*Federator, error) {
	if cfg.ID == "" {
		cfg.ID = auth.ProviderGoogle
	}
	if err := validateConfig(cfg); err != nil {
		return nil, auth.WrapError(auth.ErrProviderError, "invalid OIDC configuration", err, nil)
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}
	if cfg.OpenURL == nil {
		cfg.OpenURL = openBrowser
	}
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Federator{cfg: cfg, logger: logger.With("provider", cfg.ID)}, nil
}

func (f *Federator) ID() string   { return f.cfg.ID }
func (f *Federator) Name() string { return auth.ProviderName(f.cfg.ID) }

// SignIn runs the browser flow and blocks until the redirect arrives or
// ctx is done.
func (f *Federator) SignIn(ctx context.Context) auth.Result {
	if f.cfg.HTTPClient != nil {
		ctx = oidc.ClientContext(ctx, f.cfg.HTTPClient)
	}

	session, err := f.signIn(ctx)
	if err != nil {
		f.logger.WithError(err).Warn("federated sign-in failed")
		return auth.FromError(err)
	}
	return auth.Succeeded(session)
}

type callback struct {
	code string
	err  error
}

func (f *Federator) signIn(ctx context.Context) (*auth.Session, error) {
	provider, err := f.discover(ctx)
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", f.cfg.RedirectPort))
	if err != nil {
		return nil, f.failure("failed to start redirect listener", err)
	}

	oauth2Config := &oauth2.Config{
		ClientID:     f.cfg.ClientID,
		ClientSecret: f.cfg.ClientSecret,
		RedirectURL:  "http://" + ln.Addr().String() + callbackPath,
		Endpoint:     provider.Endpoint(),
		Scopes:       f.cfg.Scopes,
	}

	state, err := generateRandomString(32)
	if err != nil {
		ln.Close()
		return nil, f.failure("failed to generate state", err)
	}
	verifier := oauth2.GenerateVerifier()

	results := make(chan callback, 1)
	srv := &http.Server{
		Handler:           f.callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		_ = srv.Serve(ln)
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := oauth2Config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	f.logger.Info("waiting for federated sign-in", "url", authURL)
	if err := f.cfg.OpenURL(authURL); err != nil {
		f.logger.WithError(err).Warn("could not open browser; open the URL manually", "url", authURL)
	}

	var cb callback
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case cb = <-results:
	}
	if cb.err != nil {
		return nil, cb.err
	}

	token, err := oauth2Config.Exchange(ctx, cb.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, f.failure("failed to exchange code for token", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, f.failure("no id_token in token response", nil)
	}

	idToken, err := provider.Verifier(&oidc.Config{ClientID: f.cfg.ClientID}).Verify(ctx, rawIDToken)
	if err != nil {
		return nil, f.failure("failed to verify ID token", err)
	}

	return f.sessionFromIDToken(idToken)
}

// callbackHandler accepts exactly one redirect and reports it on results.
func (f *Federator) callbackHandler(state string, results chan<- callback) http.Handler {
	var once sync.Once
	report := func(cb callback) {
		once.Do(func() { results <- cb })
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		switch {
		case q.Get("error") == "access_denied":
			report(callback{err: auth.NewError(auth.ErrProviderError, f.Name()+" sign-in was cancelled", nil)})
			writePage(w, http.StatusOK, "Sign-in cancelled. You can close this window.")
		case q.Get("error") != "":
			report(callback{err: f.failure("authorization failed", fmt.Errorf("%s: %s", q.Get("error"), q.Get("error_description")))})
			writePage(w, http.StatusBadRequest, "Sign-in failed. You can close this window.")
		case q.Get("state") != state:
			report(callback{err: f.failure("state mismatch", nil)})
			writePage(w, http.StatusBadRequest, "Sign-in failed. You can close this window.")
		case q.Get("code") == "":
			report(callback{err: f.failure("missing authorization code", nil)})
			writePage(w, http.StatusBadRequest, "Sign-in failed. You can close this window.")
		default:
			report(callback{code: q.Get("code")})
			writePage(w, http.StatusOK, "Signed in. You can return to the terminal.")
		}
	})
	return mux
}

func writePage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<!doctype html><html><body><p>%s</p></body></html>", msg)
}

func (f *Federator) discover(ctx context.Context) (*oidc.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.provider != nil {
		return f.provider, nil
	}
	provider, err := oidc.NewProvider(ctx, f.cfg.Issuer)
	if err != nil {
		return nil, auth.WrapError(auth.ErrProviderError, "Could not reach "+f.Name(), err, map[string]interface{}{
			"issuer": f.cfg.Issuer,
		})
	}
	f.provider = provider
	return provider, nil
}

// sessionFromIDToken maps standard claims onto a session.
func (f *Federator) sessionFromIDToken(idToken *oidc.IDToken) (*auth.Session, error) {
	var claims struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, f.failure("failed to parse ID token claims", err)
	}
	if claims.Email == "" {
		return nil, f.failure("ID token has no email claim", nil)
	}

	session := auth.NewFederatedSession(f.cfg.ID, claims.Email, claims.Name, claims.Picture)
	if session == nil {
		return nil, f.failure("no session method for provider", nil)
	}
	if claims.Sub != "" {
		session.UID = f.cfg.ID + "_user_" + claims.Sub
	}
	return session, nil
}

// failure builds the generic user-facing error for a failed flow.
func (f *Federator) failure(detail string, cause error) *auth.AuthError {
	return auth.WrapError(auth.ErrProviderError, f.Name()+" sign-in failed", cause, map[string]interface{}{
		"detail": detail,
	})
}

func validateConfig(cfg Config) error {
	if cfg.Issuer == "" {
		return fmt.Errorf("issuer is required")
	}
	if cfg.ClientID == "" {
		return fmt.Errorf("client ID is required")
	}
	if _, ok := auth.MethodFor(cfg.ID); !ok {
		return fmt.Errorf("provider id %q has no session method", cfg.ID)
	}
	if cfg.RedirectPort < 0 || cfg.RedirectPort > 65535 {
		return fmt.Errorf("redirect port %d out of range", cfg.RedirectPort)
	}
	return nil
}

// generateRandomString generates a cryptographically secure random string.
func generateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// openBrowser opens url in the default browser for the OS.
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	_, err := startDetached(cmd)
	return err
}

// startDetached starts cmd and reaps it in the background. The returned
// channel receives the exit status once the process has finished.
func startDetached(cmd *exec.Cmd) (<-chan error, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()
	return exited, nil
}
