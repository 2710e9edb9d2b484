package config

import (
	"io"

	"github.com/dmitrijs2005/tact0/internal/flagx"
	"github.com/spf13/pflag"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a, --addr string            HTTP bind address (e.g. ":8080")
//	-d, --database-dsn string    PostgreSQL DSN
//	-s, --secret string          session token HMAC secret
//	    --session-ttl duration   session lifetime (e.g. "168h")
//	    --env string             environment name
//	    --cookie-secure          force the Secure cookie attribute
//	-e, --engine-url string      chat engine base URL
//	    --engine-api-key string  chat engine bearer key
//	    --engine-timeout duration
//	    --log-level string
//	-c, --config string          JSON config file (read by parseJSON)
//
// Only flags given explicitly override earlier layers.
func parseFlags(config *Config, args []string) error {
	fs := pflag.NewFlagSet("tact0", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVarP(&config.Addr, "addr", "a", config.Addr, "address and port to run server")
	fs.StringVarP(&config.DatabaseDSN, "database-dsn", "d", config.DatabaseDSN, "database DSN")
	fs.StringVarP(&config.SecretKey, "secret", "s", config.SecretKey, "session token secret")
	fs.DurationVar(&config.SessionTTL, "session-ttl", config.SessionTTL, "session lifetime")
	fs.StringVar(&config.Environment, "env", config.Environment, "environment name")
	cookieSecure := fs.Bool("cookie-secure", config.SecureCookies(), "set the Secure cookie attribute")
	fs.StringVarP(&config.EngineURL, "engine-url", "e", config.EngineURL, "chat engine base URL")
	fs.StringVar(&config.EngineAPIKey, "engine-api-key", config.EngineAPIKey, "chat engine bearer key")
	fs.DurationVar(&config.EngineTimeout, "engine-timeout", config.EngineTimeout, "chat engine call timeout")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringP("config", "c", "", "path to config file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flagx.Visited(fs, "cookie-secure") {
		v := *cookieSecure
		config.CookieSecure = &v
	}
	return nil
}
