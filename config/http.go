package config

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	_ = godotenv.Load()
}

type HTTPConfig struct {
	ProviderTimeout time.Duration `env:"HTTP_PROVIDER_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

var HTTP = loadHTTPConfig()

func loadHTTPConfig() HTTPConfig {
	cfg := HTTPConfig{
		ProviderTimeout: 30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}

	if v := os.Getenv("HTTP_PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ProviderTimeout = d
		}
	}

	if v := os.Getenv("HTTP_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}

	return cfg
}

// ProviderClient is used for token exchange and refresh calls; the
// timeout bounds the only external I/O the broker performs.
func ProviderClient() *http.Client {
	return &http.Client{
		Timeout: HTTP.ProviderTimeout,
	}
}
