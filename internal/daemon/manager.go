// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/john-james-ai/d8analysis/internal/config"
)

// ShutdownHook is a cleanup function run during graceful shutdown.
// Hooks run in reverse registration order, so the deepest dependency
// (the catalog, say) closes last.
type ShutdownHook func(ctx context.Context) error

// Manager owns the daemon lifecycle: it brings up the HTTP listeners
// and tears everything down in order on shutdown.
type Manager interface {
	// Start brings up all configured servers and blocks until ctx is
	// canceled or a server fails.
	Start(ctx context.Context) error

	// Shutdown stops the servers and runs the registered hooks.
	Shutdown(ctx context.Context) error

	// RegisterShutdownHook adds a named cleanup step for shutdown.
	RegisterShutdownHook(name string, hook ShutdownHook)
}

type namedHook struct {
	name string
	hook ShutdownHook
}

type namedServer struct {
	name string
	srv  *http.Server
}

type manager struct {
	serverCfg config.ServerConfig
	deps      Deps

	mu            sync.Mutex
	servers       []namedServer
	shutdownHooks []namedHook
	started       bool
	stopping      bool

	logger zerolog.Logger
}

// NewManager validates deps and returns a lifecycle manager over them.
func NewManager(serverCfg config.ServerConfig, deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}

	return &manager{
		serverCfg: serverCfg,
		deps:      deps,
		logger:    deps.Logger.With().Str("component", "manager").Logger(),
	}, nil
}

func (m *manager) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("start context is nil")
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("manager already started")
	}
	m.started = true
	m.mu.Unlock()

	m.logger.Info().
		Str("listen", m.serverCfg.ListenAddr).
		Dur("read_timeout", m.serverCfg.ReadTimeout).
		Dur("write_timeout", m.serverCfg.WriteTimeout).
		Dur("shutdown_timeout", m.serverCfg.ShutdownTimeout).
		Msg("Starting daemon manager")

	errChan := make(chan error, 2)

	if m.deps.MetricsHandler != nil && m.deps.Config.MetricsAddr != "" {
		m.launch("metrics", &http.Server{
			Addr:              m.deps.Config.MetricsAddr,
			Handler:           m.deps.MetricsHandler,
			ReadHeaderTimeout: 10 * time.Second,
		}, errChan)
	}

	m.launch("api", &http.Server{
		Addr:              m.serverCfg.ListenAddr,
		Handler:           m.deps.APIHandler,
		ReadTimeout:       m.serverCfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      m.serverCfg.WriteTimeout,
		IdleTimeout:       m.serverCfg.IdleTimeout,
		MaxHeaderBytes:    m.serverCfg.MaxHeaderBytes,
	}, errChan)

	// Both exits hand Shutdown a detached, bounded context, so a
	// canceled parent cannot abort cleanup halfway.
	select {
	case err := <-errChan:
		m.logger.Error().Err(err).Msg("Server error, initiating shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if shutdownErr := m.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("server error and shutdown failure: %w", errors.Join(err, shutdownErr))
		}
		return err
	case <-ctx.Done():
		m.logger.Info().Msg("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return m.Shutdown(shutdownCtx)
	}
}

// launch serves srv in a goroutine, registering it for shutdown and
// reporting fatal serve errors on errChan.
func (m *manager) launch(name string, srv *http.Server, errChan chan<- error) {
	m.mu.Lock()
	m.servers = append(m.servers, namedServer{name: name, srv: srv})
	m.mu.Unlock()

	go func() {
		m.logger.Info().
			Str("server", name).
			Str("addr", srv.Addr).
			Msg("server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().
				Err(err).
				Str("event", "server."+name+"_failed").
				Msg("server failed")
			errChan <- fmt.Errorf("%s server: %w", name, err)
		}
	}()
}

func (m *manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("shutdown context is nil")
	}

	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	servers := m.servers
	hooks := m.shutdownHooks
	m.mu.Unlock()

	m.logger.Info().Msg("Shutting down daemon manager")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.serverCfg.ShutdownTimeout)
	defer cancel()

	var errs []error

	// Listeners stop first so no new work arrives while hooks run.
	// The API listener went up last and comes down first.
	for i := len(servers) - 1; i >= 0; i-- {
		s := servers[i]
		m.logger.Debug().Str("server", s.name).Msg("Shutting down server")
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("%s server shutdown: %w", s.name, err))
		}
	}

	m.logger.Debug().Int("hooks", len(hooks)).Msg("Executing shutdown hooks")
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		hookStart := time.Now()
		if err := h.hook(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("hook %s: %w", h.name, err))
			m.logger.Error().
				Err(err).
				Str("hook", h.name).
				Dur("duration", time.Since(hookStart)).
				Msg("Shutdown hook failed")
			continue
		}
		m.logger.Debug().
			Str("hook", h.name).
			Dur("duration", time.Since(hookStart)).
			Msg("Shutdown hook completed")
	}

	if len(errs) > 0 {
		m.logger.Error().
			Int("error_count", len(errs)).
			Msg("Shutdown completed with errors")
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	m.logger.Info().Msg("Daemon manager stopped cleanly")
	return nil
}

// RegisterShutdownHook adds a cleanup step. Hooks run newest-first,
// mirroring construction order.
func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownHooks = append(m.shutdownHooks, namedHook{name: name, hook: hook})
	m.logger.Debug().Str("hook", name).Msg("Registered shutdown hook")
}
