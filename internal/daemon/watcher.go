// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/john-james-ai/d8analysis/internal/catalog"
	"github.com/john-james-ai/d8analysis/internal/config"
	"github.com/john-james-ai/d8analysis/internal/jobs"
	d8log "github.com/john-james-ai/d8analysis/internal/log"
	"github.com/john-james-ai/d8analysis/internal/ratelimit"
)

// ProfileTrigger starts background profile runs.
type ProfileTrigger interface {
	TriggerProfile(ctx context.Context, datasetID string) (string, error)
}

// Watcher observes the data directory and turns CSV arrivals into catalog
// registrations and profile runs. Events are debounced per path, so a file
// still being copied only fires once it settles, and rate limited, so a
// bulk import cannot queue an unbounded run backlog.
type Watcher struct {
	cfg     config.WatcherConfig
	dataDir string
	catalog *catalog.Store
	trigger ProfileTrigger
	limiter *ratelimit.Limiter
	logger  zerolog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a data directory watcher.
func NewWatcher(cfg config.WatcherConfig, dataDir string, cat *catalog.Store, trigger ProfileTrigger) (*Watcher, error) {
	if cat == nil {
		return nil, ErrMissingCatalog
	}
	if trigger == nil {
		return nil, ErrMissingTrigger
	}

	limits := ratelimit.DefaultConfig()
	if cfg.EventsPerMin > 0 {
		limits.GlobalRate = ratelimit.PerMinute(cfg.EventsPerMin)
	}
	if cfg.EventsBurst > 0 {
		limits.GlobalBurst = cfg.EventsBurst
	}

	return &Watcher{
		cfg:     cfg,
		dataDir: dataDir,
		catalog: cat,
		trigger: trigger,
		limiter: ratelimit.New(limits),
		logger:  d8log.WithComponent("watcher"),
		pending: make(map[string]*time.Timer),
	}, nil
}

// Run watches the data directory until ctx is cancelled. The watch is not
// recursive: report and result subdirectories stay invisible by design of
// the layout, not by filtering.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = watcher.Close()
	}()

	if err := watcher.Add(w.dataDir); err != nil {
		return err
	}

	w.logger.Info().
		Str("event", "watch.started").
		Str("dir", w.dataDir).
		Dur("debounce", w.debounce()).
		Msg("watching data directory")

	defer w.stopPending()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str("event", "watch.stopped").Msg("data directory watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !w.eligible(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().
				Err(err).
				Str("event", "watch.error").
				Msg("data directory watcher error")
		}
	}
}

// eligible reports whether a path should be treated as a dataset file.
func (w *Watcher) eligible(path string) bool {
	base := filepath.Base(path)
	if !w.cfg.IncludeHidden && strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".csv")
}

// schedule arms or rewinds the debounce timer for a path. Each write
// resets it, so the path only fires once writes have settled.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce(), func() {
		w.fire(ctx, path)
	})
}

func (w *Watcher) debounce() time.Duration {
	if w.cfg.Debounce > 0 {
		return w.cfg.Debounce
	}
	return 2 * time.Second
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// fire registers the settled file and triggers a profile run.
func (w *Watcher) fire(ctx context.Context, path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	if !w.limiter.Allow(path) {
		w.logger.Warn().
			Str("event", "watch.throttled").
			Str("path", path).
			Msg("dropping watcher event, rate limit exceeded")
		return
	}

	// The file may have been deleted between the event and the debounce.
	if _, err := os.Stat(path); err != nil {
		w.logger.Debug().
			Str("event", "watch.vanished").
			Str("path", path).
			Msg("file disappeared before registration")
		return
	}

	rec, err := jobs.RegisterFile(ctx, w.catalog, path, jobs.RegisterOptions{Source: "watch"})
	if err != nil {
		w.logger.Error().
			Err(err).
			Str("event", "watch.register_failed").
			Str("path", path).
			Msg("could not register watched file")
		return
	}

	runID, err := w.trigger.TriggerProfile(ctx, rec.ID)
	if err != nil {
		if errors.Is(err, jobs.ErrAlreadyRunning) {
			w.logger.Debug().
				Str("event", "watch.profile_skipped").
				Str("dataset_id", rec.ID).
				Msg("profile already in flight for dataset")
			return
		}
		w.logger.Error().
			Err(err).
			Str("event", "watch.profile_failed").
			Str("dataset_id", rec.ID).
			Msg("could not trigger profile for watched file")
		return
	}

	w.logger.Info().
		Str("event", "watch.profiled").
		Str("dataset_id", rec.ID).
		Str("run_id", runID).
		Str("path", path).
		Msg("watched file registered and profiling")
}
