package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/iskr/internal/flagx"
	"github.com/dmitrijs2005/iskr/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. Pointer fields tell an
// absent key from a zero value.
type JsonConfig struct {
	ServerBaseURL        *string         `json:"server_base_url"`
	RequestTimeout       *timex.Duration `json:"request_timeout"`
	DatabasePath         *string         `json:"database_path"`
	RegistrationMode     *string         `json:"registration_mode"`
	SessionCheckInterval *timex.Duration `json:"session_check_interval"`
	LogLevel             *string         `json:"log_level"`
	LogPretty            *bool           `json:"log_pretty"`
	MetricsAddr          *string         `json:"metrics_addr"`
}

// parseJson overlays cfg with the JSON file named by -c or -config in
// args. Without either flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setIf(&cfg.ServerBaseURL, jc.ServerBaseURL)
	setIf(&cfg.DatabasePath, jc.DatabasePath)
	setIf(&cfg.RegistrationMode, jc.RegistrationMode)
	setIf(&cfg.LogLevel, jc.LogLevel)
	setIf(&cfg.LogPretty, jc.LogPretty)
	setIf(&cfg.MetricsAddr, jc.MetricsAddr)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.SessionCheckInterval != nil {
		cfg.SessionCheckInterval = jc.SessionCheckInterval.Duration
	}
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
