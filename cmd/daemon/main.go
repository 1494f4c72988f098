// SPDX-License-Identifier: MIT

// Command daemon runs the d8analysis service: it watches a data
// directory, profiles registered datasets and serves the results over
// HTTP. Subcommands cover operational chores (healthcheck, storage).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/john-james-ai/d8analysis/internal/config"
	"github.com/john-james-ai/d8analysis/internal/daemon"
	"github.com/john-james-ai/d8analysis/internal/health"
	d8log "github.com/john-james-ai/d8analysis/internal/log"
	"github.com/john-james-ai/d8analysis/internal/version"
)

var (
	buildVersion = version.Version
	buildCommit  = version.Commit
	buildDate    = version.Date
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		case "storage":
			os.Exit(runStorageCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", buildVersion, buildCommit, buildDate)
		os.Exit(0)
	}

	// Configure logger with safe defaults until config is loaded.
	d8log.Configure(d8log.Config{
		Level:   "info",
		Service: "d8analysis",
	})
	logger := d8log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Config path: explicit via --config, otherwise auto-load
	// ${D8A_DATA_DIR}/config.yaml if it exists.
	effectiveConfigPath := strings.TrimSpace(*configPath)
	if effectiveConfigPath == "" {
		effectiveConfigPath = config.AutoConfigPath()
	}

	loader := config.NewLoader(effectiveConfigPath, buildVersion)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}

	if strings.TrimSpace(*configPath) != "" {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file").
			Str("path", effectiveConfigPath).
			Msg("loaded configuration from file")
	} else if effectiveConfigPath != "" {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file(auto)").
			Str("path", effectiveConfigPath).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	// Fail fast before any listener binds.
	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "startup.check_failed").
			Msg("startup checks failed, verify configuration and permissions")
	}

	logger.Info().
		Str("event", "startup").
		Str("version", buildVersion).
		Str("commit", buildCommit).
		Str("build_date", buildDate).
		Str("addr", cfg.ListenAddr).
		Msg("starting d8analysis")

	// Log key configuration so a single glance at startup output answers
	// "what is this instance doing".
	logger.Info().Msgf("→ Data dir: %s", cfg.DataDir)
	logger.Info().Msgf("→ Report dir: %s", cfg.ReportDir)
	logger.Info().Msgf("→ Catalog: %s", cfg.Catalog.Path)
	logger.Info().Msgf("→ Results: %s", cfg.Results.Backend)
	logger.Info().Msgf("→ Cache: %s", cfg.Cache.Backend)
	if cfg.Watcher.Enabled {
		logger.Info().Msgf("→ Watcher: enabled (debounce %s)", cfg.Watcher.Debounce)
	} else {
		logger.Info().Msg("→ Watcher: disabled")
	}
	if cfg.MetricsAddr != "" {
		logger.Info().Msgf("→ Metrics: %s", cfg.MetricsAddr)
	}
	if cfg.APIToken != "" {
		logger.Info().Msg("→ API token: configured")
	} else if cfg.AuthAnonymous {
		logger.Warn().
			Str("security", "weak").
			Msg("→ API token: NOT configured, anonymous read-only access enabled")
	} else {
		logger.Warn().
			Str("security", "locked").
			Msg("→ API token: NOT configured, API requests will be rejected. Set D8A_API_TOKEN.")
	}

	// Hot reload support: watch the config file and allow SIGHUP-triggered
	// reload. Without a file there is nothing to reload.
	var cfgHolder *config.Holder
	if effectiveConfigPath != "" {
		cfgHolder = config.NewHolder(cfg, config.NewLoader(effectiveConfigPath, buildVersion), effectiveConfigPath)
	}

	app, err := daemon.Build(ctx, cfg, cfgHolder)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.build_failed").
			Msg("failed to assemble daemon")
	}

	if err := app.Run(ctx); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.failed").
			Msg("daemon app failed")
	}

	logger.Info().Msg("server exiting")
}
