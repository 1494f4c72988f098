// SPDX-License-Identifier: MIT

// Package jobs schedules profiling runs. It enforces one run per dataset
// at a time, bounds how many runs execute concurrently and records every
// run in the catalog, so the API can answer run status queries while the
// work happens in the background.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/john-james-ai/d8analysis/internal/catalog"
	"github.com/john-james-ai/d8analysis/internal/dataset"
	d8log "github.com/john-james-ai/d8analysis/internal/log"
	"github.com/john-james-ai/d8analysis/internal/metrics"
	"github.com/john-james-ai/d8analysis/internal/profile"
	"github.com/john-james-ai/d8analysis/internal/resultstore"
)

// ErrAlreadyRunning is returned when a dataset already has a run in flight.
var ErrAlreadyRunning = errors.New("jobs: profile run already in progress")

// Loader resolves a catalog record to a parsed dataset.
type Loader interface {
	Load(ctx context.Context, rec *catalog.DatasetRecord) (*dataset.Dataset, error)
}

// Config holds configuration for the run scheduler.
type Config struct {
	// Profile is passed through to every run.
	Profile profile.Config
	// MaxConcurrency bounds runs executing at once. Zero means 2.
	MaxConcurrency int
	// ResultTTL is the retention applied to reports in the result store.
	// Zero keeps them until deleted.
	ResultTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 2
	}
	return c
}

// Runner owns the profiling run lifecycle: trigger, execute, record.
type Runner struct {
	cfg     Config
	catalog *catalog.Store
	results resultstore.Store
	loader  Loader

	// rootCtx detaches background runs from the triggering request, so a
	// closed client connection does not abort a half-finished profile.
	rootCtx context.Context

	mu      sync.Mutex
	running map[string]string // dataset id -> run id
	lastRun time.Time
	lastErr string

	sem chan struct{}
	wg  sync.WaitGroup
}

// NewRunner creates a run scheduler. rootCtx should be the daemon's
// lifecycle context; cancelling it aborts queued and in-flight runs.
func NewRunner(rootCtx context.Context, cfg Config, cat *catalog.Store, results resultstore.Store, loader Loader) *Runner {
	cfg = cfg.withDefaults()
	return &Runner{
		cfg:     cfg,
		catalog: cat,
		results: results,
		loader:  loader,
		rootCtx: rootCtx,
		running: make(map[string]string),
		sem:     make(chan struct{}, cfg.MaxConcurrency),
	}
}

// TriggerProfile starts a background run for the dataset and returns its
// run id. It returns catalog.ErrNotFound for unknown datasets and
// ErrAlreadyRunning when the dataset has a run in flight.
func (r *Runner) TriggerProfile(ctx context.Context, datasetID string) (string, error) {
	rec, err := r.catalog.GetDataset(ctx, datasetID)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	if _, busy := r.running[rec.ID]; busy {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: dataset %q", ErrAlreadyRunning, rec.ID)
	}
	runID := uuid.NewString()
	r.running[rec.ID] = runID
	r.mu.Unlock()

	run := &catalog.RunRecord{
		ID:        runID,
		DatasetID: rec.ID,
		StartedAt: time.Now(),
		Status:    catalog.RunStatusRunning,
	}
	if err := r.catalog.RecordRunStart(ctx, run); err != nil {
		r.mu.Lock()
		delete(r.running, rec.ID)
		r.mu.Unlock()
		return "", fmt.Errorf("record run start: %w", err)
	}

	r.wg.Add(1)
	go r.execute(runID, rec)

	return runID, nil
}

// Running reports whether the dataset has a run in flight.
func (r *Runner) Running(datasetID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, busy := r.running[datasetID]
	return busy
}

// LastRun returns the finish time and error message of the most recent
// run. It feeds the readiness checker.
func (r *Runner) LastRun() (time.Time, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun, r.lastErr
}

// Wait blocks until all in-flight runs have finished. Called on shutdown
// after rootCtx is cancelled.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) execute(runID string, rec *catalog.DatasetRecord) {
	defer r.wg.Done()
	defer func() {
		r.mu.Lock()
		delete(r.running, rec.ID)
		r.mu.Unlock()
	}()

	ctx := d8log.ContextWithRunID(r.rootCtx, runID)
	ctx = d8log.ContextWithDatasetID(ctx, rec.ID)
	logger := d8log.WithComponentFromContext(ctx, "jobs")

	// Bound concurrent runs. Shutdown abandons queued work.
	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	case <-ctx.Done():
		r.finish(ctx, runID, rec, nil, "", ctx.Err(), time.Now())
		return
	}

	start := time.Now()
	logger.Info().
		Str("event", "run.start").
		Str("name", rec.Name).
		Msg("profile run started")

	ds, err := r.loader.Load(ctx, rec)
	if err != nil {
		r.finish(ctx, runID, rec, nil, "", fmt.Errorf("load dataset: %w", err), start)
		return
	}

	report, err := profile.Run(ctx, r.cfg.Profile, ds)
	if err != nil {
		r.finish(ctx, runID, rec, nil, "", err, start)
		return
	}

	reportPath, err := profile.WriteReport(ctx, r.cfg.Profile.ReportDir, report)
	if err != nil {
		r.finish(ctx, runID, rec, report, "", err, start)
		return
	}

	r.storeResult(ctx, runID, report)
	r.finish(ctx, runID, rec, report, reportPath, nil, start)
}

// storeResult keeps the rendered report in the result store for run-level
// retrieval. Failure here is not fatal: the report file on disk remains
// the source of truth.
func (r *Runner) storeResult(ctx context.Context, runID string, report *profile.Report) {
	logger := d8log.WithComponentFromContext(ctx, "jobs")

	payload, err := json.Marshal(report)
	if err != nil {
		logger.Warn().Err(err).Str("event", "run.result_encode_failed").Msg("could not encode report for result store")
		return
	}
	if err := r.results.Put(ctx, runID, payload, r.cfg.ResultTTL); err != nil {
		logger.Warn().Err(err).Str("event", "run.result_store_failed").Msg("could not store report")
	}
}

func (r *Runner) finish(ctx context.Context, runID string, rec *catalog.DatasetRecord, report *profile.Report, reportPath string, runErr error, start time.Time) {
	logger := d8log.WithComponentFromContext(ctx, "jobs")
	finished := time.Now()

	run := &catalog.RunRecord{
		ID:         runID,
		DatasetID:  rec.ID,
		StartedAt:  start,
		FinishedAt: finished,
		ReportPath: reportPath,
	}

	outcome := "success"
	switch {
	case runErr == nil:
		run.Status = catalog.RunStatusSuccess
	case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
		run.Status = catalog.RunStatusCanceled
		run.Error = runErr.Error()
		outcome = "canceled"
	default:
		run.Status = catalog.RunStatusFailure
		run.Error = runErr.Error()
		outcome = "failure"
	}

	if report != nil {
		run.Columns = len(report.Columns)
		run.Rows = report.Overview.Rows
	}

	// Bookkeeping must land even when the run was cancelled by shutdown.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.catalog.RecordRunResult(recordCtx, run); err != nil {
		logger.Error().Err(err).Str("event", "run.record_failed").Msg("could not record run result")
	}

	r.mu.Lock()
	r.lastRun = finished
	if runErr != nil {
		r.lastErr = runErr.Error()
	} else {
		r.lastErr = ""
	}
	r.mu.Unlock()

	seconds := finished.Sub(start).Seconds()
	metrics.RecordProfileRun(outcome, seconds)

	if runErr != nil {
		logger.Error().
			Err(runErr).
			Str("event", "run.finished").
			Str("status", run.Status).
			Msg("profile run finished")
		return
	}

	metrics.AddProfiledColumns(run.Columns)
	metrics.AddProfiledRows(run.Rows)
	logger.Info().
		Str("event", "run.finished").
		Str("status", run.Status).
		Int("columns", run.Columns).
		Int("rows", run.Rows).
		Float64("seconds", seconds).
		Msg("profile run finished")
}
