package cmd

import (
	"github.com/felixgeelhaar/mars-auth/internal/auth"
	"github.com/felixgeelhaar/mars-auth/internal/auth/local"
	"github.com/felixgeelhaar/mars-auth/internal/auth/oidc"
	"github.com/felixgeelhaar/mars-auth/internal/auth/platform"
	"github.com/felixgeelhaar/mars-auth/internal/auth/simulated"
	"github.com/felixgeelhaar/mars-auth/internal/config"
	apperrors "github.com/felixgeelhaar/mars-auth/internal/errors"
	"github.com/felixgeelhaar/mars-auth/internal/log"
	"github.com/felixgeelhaar/mars-auth/internal/storage"
)

// buildProvider composes the credential backend named by
// cfg.Provider.Kind with the federated providers. Google uses OIDC when an
// issuer is configured and is simulated otherwise.
func buildProvider(cfg *config.Config, store storage.Storage, logger *log.Logger) (*auth.Composite, error) {
	sim := simulated.Options{Latency: cfg.Provider.Latency, Logger: logger}

	var creds auth.CredentialAuthenticator
	switch cfg.Provider.Kind {
	case config.ProviderSimulated:
		creds = simulated.NewCredentials(sim)
	case config.ProviderLocal:
		creds = local.New(store, local.WithLogger(logger))
	case config.ProviderPlatform:
		creds = platform.NewAuthenticator(platform.NewClient(cfg.Provider.PlatformURL), store, logger)
	default:
		return nil, apperrors.NewUnknownProviderError(cfg.Provider.Kind)
	}

	var google auth.Federator = simulated.NewFederator(auth.ProviderGoogle, sim)
	if oc := cfg.Provider.OIDC; oc.Enabled() {
		f, err := oidc.New(oidc.Config{
			ID:           auth.ProviderGoogle,
			Issuer:       oc.Issuer,
			ClientID:     oc.ClientID,
			ClientSecret: oc.ClientSecret,
			RedirectPort: oc.RedirectPort,
			Scopes:       oc.Scopes,
		}, logger)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeProviderConfig, "invalid OIDC configuration", err).
				WithSuggestion("Check provider.oidc.issuer and provider.oidc.client_id")
		}
		google = f
	}

	return auth.NewComposite(creds, auth.NewRegistry(google), auth.WithLogger(logger)), nil
}
