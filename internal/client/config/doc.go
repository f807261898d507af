// Package config loads runtime configuration for the iskr CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. ISKR_* environment variables (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// The result is validated before it is returned.
//
// Supported flags
//
//	-a string   base URL of the identity API
//	-t int      request timeout (seconds)
//	-d string   local database file
//	-m string   registration mode
//	-i int      session check interval (seconds)
//	-l string   log level
//	-pretty     console logs
//	-metrics    Prometheus listen address
//
// Environment
//
//	ISKR_SERVER_URL, ISKR_REQUEST_TIMEOUT, ISKR_DATABASE_PATH,
//	ISKR_REGISTRATION_MODE, ISKR_SESSION_CHECK_INTERVAL, ISKR_LOG_LEVEL,
//	ISKR_LOG_PRETTY, ISKR_METRICS_ADDR
//
// Durations in the environment use time.ParseDuration syntax ("30s").
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds. Absent keys keep their defaults:
//
//	{
//	  "server_base_url": "https://iskr.example/oapi",
//	  "request_timeout": "10s",
//	  "database_path": "~/.iskr/iskr.db",
//	  "registration_mode": "verification",
//	  "session_check_interval": "1m",
//	  "log_level": "info",
//	  "log_pretty": true,
//	  "metrics_addr": "127.0.0.1:9102"
//	}
package config
