package config

import (
	"os"
	"time"
)

// SessionConfig controls the lifecycle of authorization sessions: how
// long a pending attempt stays valid, how often the sweeper runs, and
// how long resolved sessions are retained for inspection.
type SessionConfig struct {
	PendingTTL        time.Duration `env:"AUTH_SESSION_TTL" envDefault:"10m"`
	SweepInterval     time.Duration `env:"AUTH_SWEEP_INTERVAL" envDefault:"1m"`
	TerminalRetention time.Duration `env:"AUTH_SESSION_RETENTION" envDefault:"24h"`
}

var Session = loadSessionConfig()

func loadSessionConfig() SessionConfig {
	cfg := SessionConfig{
		PendingTTL:        10 * time.Minute,
		SweepInterval:     time.Minute,
		TerminalRetention: 24 * time.Hour,
	}

	if v := os.Getenv("AUTH_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PendingTTL = d
		}
	}

	if v := os.Getenv("AUTH_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SweepInterval = d
		}
	}

	if v := os.Getenv("AUTH_SESSION_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TerminalRetention = d
		}
	}

	return cfg
}
