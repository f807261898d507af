package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func noEnv() envconfig.Lookuper { return envconfig.MapLookuper(map[string]string{}) }

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080/oapi", c.ServerBaseURL)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, "~/.iskr/iskr.db", c.DatabasePath)
	assert.Equal(t, "verification", c.RegistrationMode)
	assert.Equal(t, time.Minute, c.SessionCheckInterval)
	assert.Equal(t, "info", c.LogLevel)
	assert.NoError(t, c.Validate())
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(context.Background(), nil, noEnv())
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, &want, cfg)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"server_base_url":        "https://json.example/oapi",
		"request_timeout":        "20s",
		"database_path":          "json.db",
		"session_check_interval": float64(5 * time.Second),
		"log_level":              "debug",
		"log_pretty":             true,
	})

	env := envconfig.MapLookuper(map[string]string{
		"ISKR_SERVER_URL":        "https://env.example/oapi",
		"ISKR_REGISTRATION_MODE": "autologin",
		"ISKR_LOG_PRETTY":        "false",
	})

	args := []string{"-c", path, "-a", "https://flag.example/oapi", "-i", "7", "-unknown", "x"}

	cfg, err := Load(context.Background(), args, env)
	require.NoError(t, err)

	assert.Equal(t, &Config{
		ServerBaseURL:        "https://flag.example/oapi", // flag beats env and json
		RequestTimeout:       20 * time.Second,            // json
		DatabasePath:         "json.db",                   // json
		RegistrationMode:     "autologin",                 // env
		SessionCheckInterval: 7 * time.Second,             // flag
		LogLevel:             "debug",                     // json
		LogPretty:            false,                       // env beats json
		MetricsAddr:          "",
	}, cfg)
}

func TestParseJson(t *testing.T) {
	t.Run("absent keys keep values", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{"metrics_addr": ":9102"})
		cfg := &Config{ServerBaseURL: "keep", RequestTimeout: 42 * time.Second}

		require.NoError(t, parseJson(cfg, []string{"-config", path}))
		assert.Equal(t, "keep", cfg.ServerBaseURL)
		assert.Equal(t, 42*time.Second, cfg.RequestTimeout)
		assert.Equal(t, ":9102", cfg.MetricsAddr)
	})

	t.Run("no flag, no changes", func(t *testing.T) {
		cfg := &Config{ServerBaseURL: "keep"}
		require.NoError(t, parseJson(cfg, []string{"-a", "x"}))
		assert.Equal(t, &Config{ServerBaseURL: "keep"}, cfg)
	})

	t.Run("invalid json", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		require.Error(t, parseJson(&Config{}, []string{"-c", bad}))
	})

	t.Run("missing file", func(t *testing.T) {
		require.Error(t, parseJson(&Config{}, []string{"-c", filepath.Join(t.TempDir(), "nope.json")}))
	})
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Config
		wantErr bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "https://x.example", "-t", "3", "-d", "x.db", "-m", "autologin",
				"-i", "10", "-l", "warn", "-pretty", "-metrics", ":9000"},
			want: Config{ServerBaseURL: "https://x.example", RequestTimeout: 3 * time.Second, DatabasePath: "x.db",
				RegistrationMode: "autologin", SessionCheckInterval: 10 * time.Second, LogLevel: "warn",
				LogPretty: true, MetricsAddr: ":9000"},
		},
		{
			name: "untouched durations keep sub-second values",
			args: []string{"-d", "y.db"},
			want: Config{DatabasePath: "y.db", RequestTimeout: 1500 * time.Millisecond},
		},
		{name: "incorrect interval", args: []string{"-i", "abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{RequestTimeout: 1500 * time.Millisecond}
			err := parseFlags(cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *cfg)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad mode", env: map[string]string{"ISKR_REGISTRATION_MODE": "magic"}},
		{name: "bad url", env: map[string]string{"ISKR_SERVER_URL": "not a url"}},
		{name: "bad level", env: map[string]string{"ISKR_LOG_LEVEL": "loud"}},
		{name: "bad duration", env: map[string]string{"ISKR_REQUEST_TIMEOUT": "soon"}},
		{name: "bad metrics addr", env: map[string]string{"ISKR_METRICS_ADDR": "nowhere"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), nil, envconfig.MapLookuper(tt.env))
			require.Error(t, err)
		})
	}
}
