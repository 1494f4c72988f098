// SPDX-License-Identifier: MIT

package config

import "time"

// ServerConfig holds HTTP server tuning shared by the API and metrics
// listeners.
type ServerConfig struct {
	// ListenAddr is the address the API server binds (e.g. ":8080").
	ListenAddr string

	// ReadTimeout bounds reading the entire request, body included.
	ReadTimeout time.Duration

	// WriteTimeout bounds response writes. Large report payloads need
	// headroom here.
	WriteTimeout time.Duration

	// IdleTimeout bounds keep-alive connections between requests.
	IdleTimeout time.Duration

	// MaxHeaderBytes caps request header parsing.
	MaxHeaderBytes int

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// Environment variable names for server tuning overrides.
const (
	EnvServerReadTimeout     = "D8A_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout    = "D8A_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout     = "D8A_SERVER_IDLE_TIMEOUT"
	EnvServerMaxHeaderBytes  = "D8A_SERVER_MAX_HEADER_BYTES"
	EnvServerShutdownTimeout = "D8A_SERVER_SHUTDOWN_TIMEOUT"
)

const (
	// Uploads stream the whole body inside ReadTimeout, so it is generous.
	defaultReadTimeout     = 5 * time.Minute
	defaultWriteTimeout    = 2 * time.Minute
	defaultIdleTimeout     = 120 * time.Second
	defaultMaxHeaderBytes  = 1 << 20 // 1 MB
	defaultShutdownTimeout = 15 * time.Second
)

// ParseServerConfigFor resolves server tuning with precedence
// ENV > defaults, taking the listen address from the resolved AppConfig.
func ParseServerConfigFor(cfg AppConfig) ServerConfig {
	maxHeaderBytes := ParseInt(EnvServerMaxHeaderBytes, defaultMaxHeaderBytes)
	if maxHeaderBytes <= 0 {
		maxHeaderBytes = defaultMaxHeaderBytes
	}

	shutdownTimeout := ParseDuration(EnvServerShutdownTimeout, defaultShutdownTimeout)
	if shutdownTimeout < 3*time.Second {
		shutdownTimeout = 3 * time.Second
	}

	return ServerConfig{
		ListenAddr:      cfg.ListenAddr,
		ReadTimeout:     ParseDuration(EnvServerReadTimeout, defaultReadTimeout),
		WriteTimeout:    ParseDuration(EnvServerWriteTimeout, defaultWriteTimeout),
		IdleTimeout:     ParseDuration(EnvServerIdleTimeout, defaultIdleTimeout),
		MaxHeaderBytes:  maxHeaderBytes,
		ShutdownTimeout: shutdownTimeout,
	}
}
