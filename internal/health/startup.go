// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/john-james-ai/d8analysis/internal/config"
	"github.com/john-james-ai/d8analysis/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks validates the environment and dependencies before starting the server.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("Running pre-flight startup checks...")

	// 1. Data Directory Permissions
	if err := checkDataDir(logger, cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}

	// 2. Report Directory
	if err := ensureReportDir(logger, cfg.ReportDir); err != nil {
		return fmt.Errorf("report directory check failed: %w", err)
	}

	// 3. Targeted Validations
	if err := checkTargetedValidations(logger, cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger.Info().Msg("✅ All startup checks passed")
	return nil
}

func checkDataDir(logger zerolog.Logger, path string) error {
	// Check if directory exists
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	// Check write permissions by creating a temp file
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str("path", path).Msg("✓ Data directory is writable")
	return nil
}

func ensureReportDir(logger zerolog.Logger, path string) error {
	if path == "" {
		return fmt.Errorf("report directory not configured")
	}
	// MkdirAll returns nil if the directory already exists
	if err := os.MkdirAll(path, 0750); err != nil {
		return fmt.Errorf("failed to ensure report directory %s: %w", path, err)
	}

	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0600); err != nil {
		return fmt.Errorf("report directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str("path", path).Msg("✓ Report directory is writable")
	return nil
}

// checkTargetedValidations performs security and runtime-critical validations
func checkTargetedValidations(logger zerolog.Logger, cfg config.AppConfig) error {
	// a. Listen Addresses (Parseable)
	if err := checkListenAddr("API", cfg.ListenAddr); err != nil {
		return err
	}
	if cfg.ListenAddr != "" {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("✓ API listen address is valid")
	}
	if err := checkListenAddr("metrics", cfg.MetricsAddr); err != nil {
		return err
	}

	// b. Auth posture
	if cfg.APIToken == "" {
		if cfg.AuthAnonymous {
			logger.Warn().Msg("no API token configured; anonymous read-only access enabled")
		} else {
			logger.Warn().Msg("no API token configured; all API requests will be rejected")
		}
	}

	// c. Catalog path parent must exist
	if cfg.Catalog.Path != "" {
		dir := filepath.Dir(cfg.Catalog.Path)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to ensure catalog directory %s: %w", dir, err)
		}
		logger.Info().Str("path", cfg.Catalog.Path).Msg("✓ Catalog path is usable")
	}

	// d. Result store backend
	switch cfg.Results.Backend {
	case "", "memory":
		logger.Warn().
			Str("results_backend", "memory").
			Msg("result store is in-memory; reports are not persistent across restarts")
	case "badger":
		if cfg.Results.Path == "" {
			return fmt.Errorf("results backend %q requires a path", cfg.Results.Backend)
		}
	default:
		return fmt.Errorf("unknown results backend: %s", cfg.Results.Backend)
	}

	// e. Cache backend
	if cfg.Cache.Backend == "redis" && cfg.Cache.RedisAddr == "" {
		return fmt.Errorf("cache backend redis requires a redis address")
	}

	// f. Remote registration allowlist
	if cfg.Remote.Enabled {
		for _, scheme := range cfg.Remote.Schemes {
			if scheme != "http" && scheme != "https" {
				return fmt.Errorf("remote scheme must be http or https, got: %s", scheme)
			}
		}
		for _, cidr := range cfg.Remote.AllowCIDRs {
			if _, _, err := net.ParseCIDR(cidr); err != nil {
				return fmt.Errorf("invalid remote allow CIDR %q: %w", cidr, err)
			}
		}
		for _, port := range cfg.Remote.AllowPorts {
			if port < 1 || port > 65535 {
				return fmt.Errorf("invalid remote allow port %d", port)
			}
		}
		logger.Info().
			Int("hosts", len(cfg.Remote.AllowHosts)).
			Int("cidrs", len(cfg.Remote.AllowCIDRs)).
			Msg("✓ Remote registration allowlist validated")
	}

	// g. Data under temp warning
	tempDir := filepath.Clean(os.TempDir())
	dataDir := filepath.Clean(cfg.DataDir)
	if tempDir != "." && (dataDir == tempDir || strings.HasPrefix(dataDir, tempDir+string(filepath.Separator))) {
		logger.Warn().
			Str("data_dir", cfg.DataDir).
			Msg("data directory is under temp; datasets and reports may be lost on reboot")
	}

	return nil
}

func checkListenAddr(label, addr string) error {
	if addr == "" {
		return nil
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid %s listen address %q: %w", label, addr, err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("invalid %s listen port %q in %q", label, port, addr)
	}
	return nil
}
