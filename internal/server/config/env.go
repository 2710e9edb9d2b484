package config

import (
	"fmt"
	"time"
)

// parseEnv overlays values from environment variables. Names follow the
// deployment conventions of the web frontend this server replaces.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("ADDR", &config.Addr)
	str("DATABASE_URL", &config.DatabaseDSN)
	str("AUTH_JWT_SECRET", &config.SecretKey)
	str("APP_ENV", &config.Environment)
	str("ENGINE_URL", &config.EngineURL)
	str("ENGINE_API_KEY", &config.EngineAPIKey)
	str("LOG_LEVEL", &config.LogLevel)

	if err := dur("SESSION_TTL", &config.SessionTTL); err != nil {
		return err
	}
	if err := dur("ENGINE_TIMEOUT", &config.EngineTimeout); err != nil {
		return err
	}

	// Any value other than "false" enables Secure.
	if v, ok := lookup("AUTH_COOKIE_SECURE"); ok && v != "" {
		secure := v != "false"
		config.CookieSecure = &secure
	}
	return nil
}
