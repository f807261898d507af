package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime settings for the iskr CLI.
//
// Units: RequestTimeout and SessionCheckInterval are time.Durations.
type Config struct {
	// ServerBaseURL is the root of the identity API, e.g. "https://iskr.example/oapi".
	ServerBaseURL  string        `env:"ISKR_SERVER_URL, overwrite" validate:"required,url"`
	RequestTimeout time.Duration `env:"ISKR_REQUEST_TIMEOUT, overwrite" validate:"gt=0"`
	// DatabasePath is the local SQLite file holding the session record.
	DatabasePath string `env:"ISKR_DATABASE_PATH, overwrite" validate:"required"`
	// RegistrationMode is "verification" or "autologin".
	RegistrationMode     string        `env:"ISKR_REGISTRATION_MODE, overwrite" validate:"oneof=verification autologin"`
	SessionCheckInterval time.Duration `env:"ISKR_SESSION_CHECK_INTERVAL, overwrite" validate:"gt=0"`
	LogLevel             string        `env:"ISKR_LOG_LEVEL, overwrite" validate:"oneof=debug info warn error"`
	LogPretty            bool          `env:"ISKR_LOG_PRETTY, overwrite"`
	// MetricsAddr enables a Prometheus endpoint on host:port when set.
	MetricsAddr string `env:"ISKR_METRICS_ADDR, overwrite" validate:"omitempty,hostname_port"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080/oapi"
	c.RequestTimeout = 10 * time.Second
	c.DatabasePath = "~/.iskr/iskr.db"
	c.RegistrationMode = "verification"
	c.SessionCheckInterval = time.Minute
	c.LogLevel = "info"
	c.LogPretty = false
	c.MetricsAddr = ""
}

// Validate checks field values after all sources are applied.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig builds the Config from os.Args and the process environment.
func LoadConfig() (*Config, error) {
	return Load(context.Background(), os.Args[1:], envconfig.OsLookuper())
}

// Load applies defaults, then the JSON file named by -c/-config, then
// environment variables, then flags. Later sources take precedence.
func Load(ctx context.Context, args []string, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(ctx, cfg, lookuper); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
