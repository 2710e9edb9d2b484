package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/tact0/internal/flagx"
	"github.com/dmitrijs2005/tact0/internal/timex"
	"github.com/tidwall/jsonc"
)

// JSONConfig is the on-disk shape of the configuration file. Comments and
// trailing commas are accepted. Durations accept "168h" or nanoseconds.
type JSONConfig struct {
	Addr          string         `json:"addr"`
	DatabaseDSN   string         `json:"database_dsn"`
	SecretKey     string         `json:"secret_key"`
	SessionTTL    timex.Duration `json:"session_ttl"`
	Environment   string         `json:"environment"`
	CookieSecure  *bool          `json:"cookie_secure"`
	EngineURL     string         `json:"engine_url"`
	EngineAPIKey  string         `json:"engine_api_key"`
	EngineTimeout timex.Duration `json:"engine_timeout"`
	LogLevel      string         `json:"log_level"`
}

// parseJSON overlays values from the file named by -c/--config. Only
// fields present in the file replace the current values.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JSONConfig{}
	if err := json.Unmarshal(jsonc.ToJSON(data), c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.Addr, c.Addr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Environment, c.Environment)
	setString(&config.EngineURL, c.EngineURL)
	setString(&config.EngineAPIKey, c.EngineAPIKey)
	setString(&config.LogLevel, c.LogLevel)
	if c.SessionTTL.Duration != 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.EngineTimeout.Duration != 0 {
		config.EngineTimeout = c.EngineTimeout.Duration
	}
	if c.CookieSecure != nil {
		v := *c.CookieSecure
		config.CookieSecure = &v
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
