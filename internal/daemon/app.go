// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/john-james-ai/d8analysis/internal/api"
	"github.com/john-james-ai/d8analysis/internal/config"
)

// App owns the long-lived runtime lifecycle (watchers, reload wiring)
// and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.Holder
	apiServer    *api.Server
	watcher      *Watcher
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator. cfgHolder and watcher may be nil
// when hot reload or the data directory watcher are disabled.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.Holder, apiServer *api.Server, watcher *Watcher) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		apiServer:    apiServer,
		watcher:      watcher,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run starts all owned background subsystems and blocks until ctx is
// cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// Config watcher is best-effort: startup should not fail when the
	// file cannot be watched.
	if a.cfgHolder != nil {
		if err := a.cfgHolder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str("event", "config.watcher_start_failed").Msg("failed to start config watcher")
		}
	}

	if a.cfgHolder != nil && a.apiServer != nil {
		g.Go(func() error { return a.applyReloads(ctx) })
	}
	if a.cfgHolder != nil && a.reloadSignal != nil {
		g.Go(func() error { return a.reloadOnSignal(ctx) })
	}

	// Data directory watcher (opt-in; stops via ctx).
	if a.watcher != nil {
		g.Go(func() error { return a.watcher.Run(ctx) })
	}

	// Main server lifecycle.
	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}

// applyReloads pushes every successful config reload into the running
// API server.
func (a *App) applyReloads(ctx context.Context) error {
	applyCh := make(chan config.AppConfig, 1)
	a.cfgHolder.RegisterListener(applyCh)

	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg := <-applyCh:
			a.apiServer.UpdateConfig(cfg)
		}
	}
}

// reloadOnSignal triggers a manual config reload on SIGHUP.
func (a *App) reloadOnSignal(ctx context.Context) error {
	hupChan := make(chan os.Signal, 1)
	signal.Notify(hupChan, a.reloadSignal)
	defer signal.Stop(hupChan)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hupChan:
			a.logger.Info().
				Str("event", "config.reload_signal").
				Str("signal", a.reloadSignal.String()).
				Msg("received reload signal, reloading config")

			if err := a.cfgHolder.Reload(context.Background()); err != nil {
				a.logger.Warn().
					Err(err).
					Str("event", "config.reload_failed").
					Msg("config reload failed")
			}
		}
	}
}
