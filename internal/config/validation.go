// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"path/filepath"
)

// Validate checks the resolved configuration for values the service cannot
// start with. Messages name the offending knob and the accepted range.
func Validate(cfg AppConfig) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty (set %s)", EnvDataDir)
	}
	if !filepath.IsAbs(cfg.DataDir) {
		return fmt.Errorf("data_dir must be absolute, got %q", cfg.DataDir)
	}
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen address must not be empty (set %s)", EnvListen)
	}
	if cfg.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", cfg.MaxUploadBytes)
	}

	if cfg.Profile.MaxConcurrency < 1 {
		return fmt.Errorf("profile.max_concurrency must be >= 1, got %d", cfg.Profile.MaxConcurrency)
	}
	if cfg.Profile.TopK < 1 {
		return fmt.Errorf("profile.top_k must be >= 1, got %d", cfg.Profile.TopK)
	}
	if cfg.Profile.Bins < 1 {
		return fmt.Errorf("profile.bins must be >= 1, got %d", cfg.Profile.Bins)
	}
	if cfg.Profile.Alpha <= 0 || cfg.Profile.Alpha >= 1 {
		return fmt.Errorf("profile.alpha must be in (0, 1), got %g", cfg.Profile.Alpha)
	}
	if cfg.Profile.SampleRows < 1 {
		return fmt.Errorf("profile.sample_rows must be >= 1, got %d", cfg.Profile.SampleRows)
	}

	if cfg.Watcher.Enabled {
		if cfg.Watcher.Debounce <= 0 {
			return fmt.Errorf("watcher.debounce must be positive, got %s", cfg.Watcher.Debounce)
		}
		if cfg.Watcher.EventsPerMin <= 0 {
			return fmt.Errorf("watcher.events_per_min must be positive, got %g", cfg.Watcher.EventsPerMin)
		}
		if cfg.Watcher.EventsBurst < 1 {
			return fmt.Errorf("watcher.events_burst must be >= 1, got %d", cfg.Watcher.EventsBurst)
		}
	}

	if cfg.Catalog.BusyTimeoutMS < 0 {
		return fmt.Errorf("catalog.busy_timeout_ms must not be negative, got %d", cfg.Catalog.BusyTimeoutMS)
	}

	switch cfg.Results.Backend {
	case "memory":
	case "badger":
		if cfg.Results.Path == "" {
			return fmt.Errorf("results.path required for badger backend (set %s)", EnvResultsPath)
		}
	default:
		return fmt.Errorf("results.backend must be memory or badger, got %q", cfg.Results.Backend)
	}

	switch cfg.Cache.Backend {
	case "memory", "none":
	case "redis":
		if cfg.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr required for redis backend (set %s)", EnvRedisAddr)
		}
	default:
		return fmt.Errorf("cache.backend must be memory, redis or none, got %q", cfg.Cache.Backend)
	}

	if cfg.Remote.Enabled {
		if len(cfg.Remote.AllowHosts) == 0 && len(cfg.Remote.AllowCIDRs) == 0 {
			return fmt.Errorf("remote.allow_hosts or remote.allow_cidrs required when remote registration is enabled")
		}
		if cfg.Remote.Timeout <= 0 {
			return fmt.Errorf("remote.timeout must be positive, got %s", cfg.Remote.Timeout)
		}
		if cfg.Remote.MaxBytes <= 0 {
			return fmt.Errorf("remote.max_bytes must be positive, got %d", cfg.Remote.MaxBytes)
		}
	}

	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.Exporter {
		case "grpc", "http":
		default:
			return fmt.Errorf("telemetry.exporter must be grpc or http, got %q", cfg.Telemetry.Exporter)
		}
		if cfg.Telemetry.SampleRate < 0 || cfg.Telemetry.SampleRate > 1 {
			return fmt.Errorf("telemetry.sample_rate must be in [0, 1], got %g", cfg.Telemetry.SampleRate)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.Requests < 1 {
			return fmt.Errorf("rate_limit.requests must be >= 1, got %d", cfg.RateLimit.Requests)
		}
		if cfg.RateLimit.Window <= 0 {
			return fmt.Errorf("rate_limit.window must be positive, got %s", cfg.RateLimit.Window)
		}
		if cfg.RateLimit.ProfileTrigger < 1 {
			return fmt.Errorf("rate_limit.profile_trigger must be >= 1, got %d", cfg.RateLimit.ProfileTrigger)
		}
	}

	return nil
}
