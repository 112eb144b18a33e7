// Package config loads service configuration from a TOML file with
// environment overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
)

// Config is the root service configuration.
type Config struct {
	Server ServerConfig           `toml:"server"`
	Google GoogleConfig           `toml:"google"`
	Scan   ScanConfig             `toml:"scan"`
	Limits map[string]LimitConfig `toml:"limits"`
	Log    LogConfig              `toml:"log"`
	// DataDir is where the SQLite database lives. Empty means the
	// store's default under the home directory.
	DataDir string `toml:"data_dir"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// JWTSecret signs and verifies bearer tokens on the API surface.
	JWTSecret string `toml:"jwt_secret"`
}

// GoogleConfig holds the OAuth app credentials for Gmail access.
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
}

// ScanConfig bounds scan passes.
type ScanConfig struct {
	PageSize            int64  `toml:"page_size"`
	DefaultLookbackDays int    `toml:"default_lookback_days"`
	Query               string `toml:"query"`
}

// LimitConfig configures one rate-limit action.
type LimitConfig struct {
	Max           int `toml:"max"`
	WindowSeconds int `toml:"window_seconds"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is a zerolog level name: debug, info, warn, error.
	Level string `toml:"level"`
	// Pretty enables human-readable console output.
	Pretty bool `toml:"pretty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Scan: ScanConfig{
			PageSize:            50,
			DefaultLookbackDays: 30,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads configuration from the TOML file at path, then applies
// environment overrides. A missing file is not an error: defaults and
// environment are enough for containerised deployments.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return cfg, fmt.Errorf("reading config file: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overrides file values with environment variables. Secrets
// in particular are expected to arrive this way.
func applyEnv(cfg *Config) {
	if v := os.Getenv("JOBTRAIL_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("JOBTRAIL_JWT_SECRET"); v != "" {
		cfg.Server.JWTSecret = v
	}
	if v := os.Getenv("JOBTRAIL_GOOGLE_CLIENT_ID"); v != "" {
		cfg.Google.ClientID = v
	}
	if v := os.Getenv("JOBTRAIL_GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Google.ClientSecret = v
	}
	if v := os.Getenv("JOBTRAIL_GOOGLE_REDIRECT_URL"); v != "" {
		cfg.Google.RedirectURL = v
	}
	if v := os.Getenv("JOBTRAIL_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("JOBTRAIL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// ActionLimits converts the configured limit table into domain form.
// Invalid entries are dropped; the limiter fills in defaults.
func (c Config) ActionLimits() map[string]domain.ActionLimit {
	out := make(map[string]domain.ActionLimit, len(c.Limits))
	for action, limit := range c.Limits {
		if limit.Max <= 0 || limit.WindowSeconds <= 0 {
			continue
		}
		out[action] = domain.ActionLimit{
			Max:    limit.Max,
			Window: time.Duration(limit.WindowSeconds) * time.Second,
		}
	}
	return out
}
