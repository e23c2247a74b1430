// Package config loads mars-auth settings from ~/.mars/config.yaml with
// MARS_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/felixgeelhaar/mars-auth/internal/errors"
	"github.com/felixgeelhaar/mars-auth/internal/log"
)

const (
	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "MARS_CONFIG"

	defaultDirName  = ".mars"
	defaultFileName = "config.yaml"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Provider kinds.
const (
	ProviderSimulated = "simulated"
	ProviderLocal     = "local"
	ProviderPlatform  = "platform"
)

// Config is the full mars-auth configuration.
type Config struct {
	DataDir  string         `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`
	Storage  StorageConfig  `json:"storage,omitempty" yaml:"storage,omitempty"`
	Provider ProviderConfig `json:"provider,omitempty" yaml:"provider,omitempty"`
	Session  SessionConfig  `json:"session,omitempty" yaml:"session,omitempty"`
	Logging  LoggingConfig  `json:"logging,omitempty" yaml:"logging,omitempty"`
}

type StorageConfig struct {
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"` // file, sqlite, memory
}

type ProviderConfig struct {
	Kind        string        `json:"kind,omitempty" yaml:"kind,omitempty"` // simulated, local, platform
	Latency     time.Duration `json:"latency,omitempty" yaml:"latency,omitempty"`
	PlatformURL string        `json:"platform_url,omitempty" yaml:"platform_url,omitempty"`
	OIDC        OIDCConfig    `json:"oidc,omitempty" yaml:"oidc,omitempty"`
}

// OIDCConfig enables the "google" federated provider when Issuer and
// ClientID are set. Otherwise federated sign-in is simulated.
type OIDCConfig struct {
	Issuer       string   `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	ClientID     string   `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	ClientSecret string   `json:"client_secret,omitempty" yaml:"client_secret,omitempty"`
	RedirectPort int      `json:"redirect_port,omitempty" yaml:"redirect_port,omitempty"`
	Scopes       []string `json:"scopes,omitempty" yaml:"scopes,omitempty"`
}

// Enabled reports whether a real OIDC issuer is configured.
func (o OIDCConfig) Enabled() bool {
	return o.Issuer != "" && o.ClientID != ""
}

type SessionConfig struct {
	AuthPath      string        `json:"auth_path,omitempty" yaml:"auth_path,omitempty"`
	HomePath      string        `json:"home_path,omitempty" yaml:"home_path,omitempty"`
	RedirectDelay time.Duration `json:"redirect_delay,omitempty" yaml:"redirect_delay,omitempty"`
	ErrorTimeout  time.Duration `json:"error_timeout,omitempty" yaml:"error_timeout,omitempty"`
	Watch         bool          `json:"watch" yaml:"watch"`
}

type LoggingConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir: filepath.Join("~", defaultDirName),
		Storage: StorageConfig{Backend: BackendFile},
		Provider: ProviderConfig{
			Kind:    ProviderSimulated,
			Latency: 1500 * time.Millisecond,
			OIDC: OIDCConfig{
				Scopes: []string{"openid", "email", "profile"},
			},
		},
		Session: SessionConfig{
			AuthPath:      "/auth",
			HomePath:      "/",
			RedirectDelay: 1500 * time.Millisecond,
			ErrorTimeout:  5 * time.Second,
			Watch:         true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   filepath.Join("~", defaultDirName, "mars-auth.log"),
		},
	}
}

// Path returns the config file location, honoring MARS_CONFIG.
func Path() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return ExpandHome(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, defaultDirName, defaultFileName), nil
}

// Load reads the config at path on top of Default. A missing file is not
// an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return cfg, nil
	case err != nil:
		return nil, apperrors.Wrap(apperrors.ErrCodeConfigRead, fmt.Sprintf("failed to read config: %s", path), err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.NewConfigParseError(path, err)
	}
	return cfg, nil
}

// LoadDefault loads from Path, applies the process environment and
// validates the result.
func LoadDefault() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML with 0600 permissions.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigWrite, "failed to create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigWrite, "failed to write config", err)
	}
	return nil
}

// Validate checks enumerations and durations.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return apperrors.NewConfigInvalidError(fmt.Sprintf("storage.backend %q (want file, sqlite or memory)", c.Storage.Backend))
	}

	switch c.Provider.Kind {
	case ProviderSimulated, ProviderLocal:
	case ProviderPlatform:
		if c.Provider.PlatformURL == "" {
			return apperrors.NewConfigInvalidError("provider.platform_url is required for the platform provider")
		}
	default:
		return apperrors.NewUnknownProviderError(c.Provider.Kind)
	}

	if c.Provider.Latency < 0 {
		return apperrors.NewConfigInvalidError("provider.latency must not be negative")
	}
	if c.Session.RedirectDelay < 0 || c.Session.ErrorTimeout <= 0 {
		return apperrors.NewConfigInvalidError("session.redirect_delay must be >= 0 and session.error_timeout > 0")
	}
	if !strings.HasPrefix(c.Session.AuthPath, "/") || !strings.HasPrefix(c.Session.HomePath, "/") {
		return apperrors.NewConfigInvalidError("session paths must start with '/'")
	}
	if _, ok := log.LookupLevel(c.Logging.Level); !ok {
		return apperrors.NewConfigInvalidError(fmt.Sprintf("logging.level %q (want debug, info, warn or error)", c.Logging.Level))
	}
	return nil
}

// ResolvedDataDir returns DataDir with ~ expanded.
func (c *Config) ResolvedDataDir() (string, error) {
	return ExpandHome(c.DataDir)
}

// ResolvedLogFile returns Logging.File with ~ expanded, or "" when file
// logging is disabled.
func (c *Config) ResolvedLogFile() (string, error) {
	if c.Logging.File == "" {
		return "", nil
	}
	return ExpandHome(c.Logging.File)
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
