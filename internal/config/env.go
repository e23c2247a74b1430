package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/felixgeelhaar/mars-auth/internal/errors"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type envBinding struct {
	name  string
	apply func(c *Config, value string) error
}

var envBindings = []envBinding{
	{"MARS_DATA_DIR", func(c *Config, v string) error { c.DataDir = v; return nil }},
	{"MARS_STORAGE", func(c *Config, v string) error { c.Storage.Backend = strings.ToLower(v); return nil }},
	{"MARS_PROVIDER", func(c *Config, v string) error { c.Provider.Kind = strings.ToLower(v); return nil }},
	{"MARS_PLATFORM_URL", func(c *Config, v string) error { c.Provider.PlatformURL = v; return nil }},
	{"MARS_LATENCY", func(c *Config, v string) error { return setDuration(&c.Provider.Latency, v) }},
	{"MARS_OIDC_ISSUER", func(c *Config, v string) error { c.Provider.OIDC.Issuer = v; return nil }},
	{"MARS_OIDC_CLIENT_ID", func(c *Config, v string) error { c.Provider.OIDC.ClientID = v; return nil }},
	{"MARS_OIDC_CLIENT_SECRET", func(c *Config, v string) error { c.Provider.OIDC.ClientSecret = v; return nil }},
	{"MARS_OIDC_REDIRECT_PORT", func(c *Config, v string) error {
		port, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Provider.OIDC.RedirectPort = port
		return nil
	}},
	{"MARS_REDIRECT_DELAY", func(c *Config, v string) error { return setDuration(&c.Session.RedirectDelay, v) }},
	{"MARS_ERROR_TIMEOUT", func(c *Config, v string) error { return setDuration(&c.Session.ErrorTimeout, v) }},
	{"MARS_WATCH", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Session.Watch = b
		return nil
	}},
	{"MARS_LOG_LEVEL", func(c *Config, v string) error { c.Logging.Level = v; return nil }},
	{"MARS_LOG_FORMAT", func(c *Config, v string) error { c.Logging.Format = v; return nil }},
	{"MARS_LOG_FILE", func(c *Config, v string) error { c.Logging.File = v; return nil }},
}

// ApplyEnv overrides fields from MARS_* variables. Empty values are ignored.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for _, b := range envBindings {
		v, ok := lookup(b.name)
		if !ok || v == "" {
			continue
		}
		if err := b.apply(c, v); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeConfigInvalid, fmt.Sprintf("invalid value for %s", b.name), err)
		}
	}
	return nil
}

// EnvNames lists the recognised override variables.
func EnvNames() []string {
	names := make([]string, 0, len(envBindings)+1)
	names = append(names, EnvConfigPath)
	for _, b := range envBindings {
		names = append(names, b.name)
	}
	return names
}

func setDuration(dst *time.Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
