// Package config handles configuration for the server component,
// including defaults, a JSON overlay, environment variables and
// command-line flags.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/tact0/internal/common"
)

// DefaultSessionTTL is the lifetime of an issued session token.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Config holds runtime settings for the tact0 server.
//
// Fields:
//   - Addr: bind address for the HTTP listener.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - SecretKey: HMAC secret for signing session tokens (HS256). Required.
//   - SessionTTL: session token and cookie lifetime.
//   - Environment: "production" turns on Secure cookies by default.
//   - CookieSecure: explicit override of the Secure cookie attribute.
//   - EngineURL / EngineAPIKey: base URL and optional bearer key of the chat engine.
//   - EngineTimeout: upper bound for a single engine call.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	Addr          string
	DatabaseDSN   string
	SecretKey     string
	SessionTTL    time.Duration
	Environment   string
	CookieSecure  *bool
	EngineURL     string
	EngineAPIKey  string
	EngineTimeout time.Duration
	LogLevel      string
}

// LoadDefaults populates Config with development defaults. There is
// deliberately no default secret.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.SessionTTL = DefaultSessionTTL
	c.Environment = "development"
	c.EngineTimeout = 60 * time.Second
	c.LogLevel = "info"
}

// SecureCookies reports whether the session cookie carries the Secure
// attribute.
func (c *Config) SecureCookies() bool {
	if c.CookieSecure != nil {
		return *c.CookieSecure
	}
	return strings.EqualFold(c.Environment, "production")
}

// Validate checks settings the server cannot run without. Every returned
// error wraps common.ErrConfiguration.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("%w: AUTH_JWT_SECRET is not set", common.ErrConfiguration)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: session ttl must be positive", common.ErrConfiguration)
	}
	if c.EngineURL != "" {
		u, err := url.Parse(c.EngineURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: invalid engine url %q", common.ErrConfiguration, c.EngineURL)
		}
	}
	if c.EngineTimeout <= 0 {
		return fmt.Errorf("%w: engine timeout must be positive", common.ErrConfiguration)
	}
	return nil
}

// Load builds a Config by applying defaults, then overlaying values from an
// optional JSON file, the environment and finally command-line flags.
func Load(args []string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookupEnv); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load applied to the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.LookupEnv)
}
