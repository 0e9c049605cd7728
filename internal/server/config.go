package server

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds HTTP server configuration.
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string

	// DataRoot is the directory structure/PAE artifacts are served from.
	DataRoot string

	// CORSAllowedOrigins configures the dashboard origins allowed to call
	// the API.
	CORSAllowedOrigins []string

	// SlowQueryThreshold is the request duration above which a read is
	// logged as slow. Slow reads are logged, never cancelled.
	SlowQueryThreshold time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:         ":8080",
		DataRoot:           "/data/archaea",
		CORSAllowedOrigins: []string{"*"},
		SlowQueryThreshold: 2 * time.Second,
		ShutdownTimeout:    30 * time.Second,
	}
}

// ConfigFromEnv reads server configuration from environment variables,
// falling back to defaults for any unset variable.
//
// Environment variables:
//   - ARCHAEA_LISTEN_ADDR: listen address (default ":8080")
//   - ARCHAEA_DATA_ROOT: artifact directory (default "/data/archaea")
//   - ARCHAEA_CORS_ORIGINS: comma-separated allowed origins (default "*")
//   - ARCHAEA_SLOW_QUERY_SECONDS: slow-request log threshold (default 2)
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("ARCHAEA_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("ARCHAEA_DATA_ROOT"); v != "" {
		cfg.DataRoot = v
	}
	if v := os.Getenv("ARCHAEA_CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}
	if v := os.Getenv("ARCHAEA_SLOW_QUERY_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.SlowQueryThreshold = time.Duration(secs) * time.Second
		}
	}

	return cfg
}
