// SPDX-License-Identifier: MIT

// Package daemon provides the core daemon bootstrapping and lifecycle management.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/john-james-ai/d8analysis/internal/api"
	"github.com/john-james-ai/d8analysis/internal/cache"
	"github.com/john-james-ai/d8analysis/internal/catalog"
	"github.com/john-james-ai/d8analysis/internal/config"
	"github.com/john-james-ai/d8analysis/internal/dataset"
	"github.com/john-james-ai/d8analysis/internal/health"
	"github.com/john-james-ai/d8analysis/internal/jobs"
	d8log "github.com/john-james-ai/d8analysis/internal/log"
	"github.com/john-james-ai/d8analysis/internal/persistence/sqlite"
	"github.com/john-james-ai/d8analysis/internal/profile"
	"github.com/john-james-ai/d8analysis/internal/resultstore"
	"github.com/john-james-ai/d8analysis/internal/telemetry"
)

// Build wires the full service runtime from resolved configuration: stores,
// run scheduler, API server, health checkers, telemetry and the lifecycle
// manager. rootCtx should outlive individual requests; cancelling it aborts
// queued and in-flight profile runs.
//
// cfgHolder may be nil when hot reload is disabled.
func Build(rootCtx context.Context, cfg config.AppConfig, cfgHolder *config.Holder) (*App, error) {
	logger := d8log.WithComponent("daemon")

	catCfg := sqlite.DefaultConfig()
	if cfg.Catalog.BusyTimeoutMS > 0 {
		catCfg.BusyTimeout = time.Duration(cfg.Catalog.BusyTimeoutMS) * time.Millisecond
	}
	cat, err := catalog.OpenWith(cfg.Catalog.Path, catCfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	results, err := resultstore.Open(cfg.Results.Backend, cfg.Results.Path)
	if err != nil {
		_ = cat.Close()
		return nil, fmt.Errorf("open result store: %w", err)
	}

	responseCache, err := cache.Open(cache.Config{
		Backend: cfg.Cache.Backend,
		TTL:     cfg.Cache.TTL,
		Redis: cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		},
	}, logger)
	if err != nil {
		_ = results.Close()
		_ = cat.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}

	loader := &jobs.FileLoader{
		Options: dataset.ReadOptions{SampleRows: cfg.Profile.SampleRows},
	}

	runner := jobs.NewRunner(rootCtx, jobs.Config{
		Profile: profile.Config{
			ReportDir:      cfg.ReportDir,
			MaxConcurrency: cfg.Profile.MaxConcurrency,
			TopK:           cfg.Profile.TopK,
			Bins:           cfg.Profile.Bins,
			Alpha:          cfg.Profile.Alpha,
			BestFit:        cfg.Profile.BestFit,
			Correlations:   cfg.Profile.Correlations,
			SampleRows:     cfg.Profile.SampleRows,
		},
		ResultTTL: cfg.Results.TTL,
	}, cat, results, loader)

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewDirChecker("data_dir", cfg.DataDir))
	hm.RegisterChecker(health.NewDirChecker("report_dir", cfg.ReportDir))
	hm.RegisterChecker(health.NewCatalogChecker(cat))
	hm.RegisterChecker(health.NewLastRunChecker(runner.LastRun))

	srv, err := api.New(cfg, api.Deps{
		Catalog: cat,
		Results: results,
		Cache:   responseCache,
		Loader:  loader,
		Trigger: runner,
		Health:  hm,
	})
	if err != nil {
		_ = closeCache(responseCache)
		_ = results.Close()
		_ = cat.Close()
		return nil, fmt.Errorf("create api server: %w", err)
	}

	// Telemetry is best-effort: the service runs fine without an exporter.
	var provider *telemetry.Provider
	if cfg.Telemetry.Enabled {
		provider, err = telemetry.NewProvider(rootCtx, telemetry.Config{
			Enabled:        true,
			ServiceName:    "d8analysis",
			ServiceVersion: cfg.Version,
			Environment:    cfg.Telemetry.Environment,
			ExporterType:   cfg.Telemetry.Exporter,
			Endpoint:       cfg.Telemetry.Endpoint,
			SamplingRate:   cfg.Telemetry.SampleRate,
		})
		if err != nil {
			logger.Warn().
				Err(err).
				Str("event", "telemetry.init_failed").
				Msg("telemetry initialization failed, continuing without tracing")
			provider = nil
		}
	}

	mgr, err := NewManager(config.ParseServerConfigFor(cfg), Deps{
		Logger:         logger,
		Config:         cfg,
		APIHandler:     srv.Router(),
		MetricsHandler: promhttp.Handler(),
	})
	if err != nil {
		_ = closeCache(responseCache)
		_ = results.Close()
		_ = cat.Close()
		return nil, fmt.Errorf("create manager: %w", err)
	}

	// Hooks run LIFO: wait out in-flight runs first, then release the
	// stores they write to.
	mgr.RegisterShutdownHook("catalog", func(context.Context) error {
		return cat.Close()
	})
	mgr.RegisterShutdownHook("results", func(context.Context) error {
		return results.Close()
	})
	mgr.RegisterShutdownHook("cache", func(context.Context) error {
		return closeCache(responseCache)
	})
	if provider != nil {
		mgr.RegisterShutdownHook("telemetry", provider.Shutdown)
	}
	mgr.RegisterShutdownHook("profile_runs", func(ctx context.Context) error {
		return waitRuns(ctx, runner)
	})

	var watcher *Watcher
	if cfg.Watcher.Enabled {
		watcher, err = NewWatcher(cfg.Watcher, cfg.DataDir, cat, runner)
		if err != nil {
			_ = closeCache(responseCache)
			_ = results.Close()
			_ = cat.Close()
			return nil, fmt.Errorf("create watcher: %w", err)
		}
	}

	return NewApp(logger, mgr, cfgHolder, srv, watcher), nil
}

// closeCache releases whatever resources the configured backend holds.
func closeCache(c cache.Cache) error {
	switch v := c.(type) {
	case interface{ Close() error }:
		return v.Close()
	case interface{ Stop() }:
		v.Stop()
	}
	return nil
}

// waitRuns blocks until in-flight profile runs finish or ctx expires.
func waitRuns(ctx context.Context, runner *jobs.Runner) error {
	done := make(chan struct{})
	go func() {
		runner.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("profile runs still in flight: %w", ctx.Err())
	}
}
