package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/iskr/internal/flagx"
)

var knownFlags = []string{"-a", "-t", "-d", "-m", "-i", "-l", "-pretty", "-metrics"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string    base URL of the identity API
//	-t int       request timeout (seconds)
//	-d string    path to the local database file
//	-m string    registration mode: verification | autologin
//	-i int       session check interval (seconds)
//	-l string    log level: debug | info | warn | error
//	-pretty      human-readable console logs (use -pretty=false to disable)
//	-metrics     host:port for the Prometheus endpoint
//
// args are filtered with flagx.FilterArgs first so flags of other layers
// do not interfere.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("iskr", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "base URL of the identity API")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local database")
	fs.StringVar(&cfg.RegistrationMode, "m", cfg.RegistrationMode, "registration mode")
	interval := fs.Int("i", int(cfg.SessionCheckInterval.Seconds()), "session check interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.LogPretty, "pretty", cfg.LogPretty, "human-readable logs")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "metrics listen address")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		case "i":
			cfg.SessionCheckInterval = time.Duration(*interval) * time.Second
		}
	})
	return nil
}
