package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// parseEnv overlays cfg with ISKR_* variables. Unset variables keep the
// value from earlier sources.
func parseEnv(ctx context.Context, cfg *Config, lookuper envconfig.Lookuper) error {
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	return nil
}
