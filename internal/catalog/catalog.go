// SPDX-License-Identifier: MIT

// Package catalog persists registered datasets and their profiling runs in
// SQLite.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/john-james-ai/d8analysis/internal/metrics"
	"github.com/john-james-ai/d8analysis/internal/persistence/sqlite"
)

const schemaVersion = 1

// Run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusSuccess  = "success"
	RunStatusFailure  = "failure"
	RunStatusCanceled = "canceled"
)

// ErrNotFound is returned when a dataset or run id is unknown.
var ErrNotFound = errors.New("catalog: not found")

// DatasetRecord is one registered dataset.
type DatasetRecord struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Source         string    `json:"source"`
	Path           string    `json:"path"`
	Fingerprint    string    `json:"fingerprint"`
	Rows           int       `json:"rows"`
	Columns        int       `json:"columns"`
	SizeBytes      int64     `json:"size_bytes"`
	RegisteredAt   time.Time `json:"registered_at"`
	LastProfiledAt time.Time `json:"last_profiled_at,omitempty"`
}

// RunRecord is one profiling run of a dataset. FinishedAt stays zero while
// the run is in flight.
type RunRecord struct {
	ID         string    `json:"id"`
	DatasetID  string    `json:"dataset_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	ReportPath string    `json:"report_path,omitempty"`
	Columns    int       `json:"columns"`
	Rows       int       `json:"rows"`
}

// Store is the SQLite-backed catalog.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog database with default pool settings
// and applies pending schema migrations.
func Open(dbPath string) (*Store, error) {
	return OpenWith(dbPath, sqlite.DefaultConfig())
}

// OpenWith opens the catalog with explicit pool settings.
func OpenWith(dbPath string, cfg sqlite.Config) (*Store, error) {
	db, err := sqlite.Open(dbPath, cfg)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	var currentVersion int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&currentVersion); err != nil {
		return err
	}
	if currentVersion >= schemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS datasets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		source TEXT NOT NULL,
		path TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		rows INTEGER NOT NULL,
		cols INTEGER NOT NULL,
		size_bytes INTEGER NOT NULL,
		registered_at_ms INTEGER NOT NULL,
		last_profiled_at_ms INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_datasets_registered ON datasets(registered_at_ms);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
		started_at_ms INTEGER NOT NULL,
		finished_at_ms INTEGER,
		status TEXT NOT NULL,
		error TEXT,
		report_path TEXT,
		columns INTEGER NOT NULL DEFAULT 0,
		rows INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset_id, started_at_ms);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// --- Dataset CRUD ---

// PutDataset inserts or updates a dataset record, keyed by id.
func (s *Store) PutDataset(ctx context.Context, rec *DatasetRecord) error {
	query := `
	INSERT INTO datasets (
		id, name, source, path, fingerprint, rows, cols, size_bytes,
		registered_at_ms, last_profiled_at_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		source = excluded.source,
		path = excluded.path,
		fingerprint = excluded.fingerprint,
		rows = excluded.rows,
		cols = excluded.cols,
		size_bytes = excluded.size_bytes,
		registered_at_ms = excluded.registered_at_ms,
		last_profiled_at_ms = excluded.last_profiled_at_ms
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.Source, rec.Path, rec.Fingerprint,
		rec.Rows, rec.Columns, rec.SizeBytes,
		timeToMs(rec.RegisteredAt), timeToNullMs(rec.LastProfiledAt),
	)
	if err != nil {
		metrics.IncCatalogError("put_dataset")
	}
	return err
}

// GetDataset returns the dataset record for id, or ErrNotFound.
func (s *Store) GetDataset(ctx context.Context, id string) (*DatasetRecord, error) {
	row := s.db.QueryRowContext(ctx, datasetSelect+" WHERE id = ?", id)
	rec, err := scanDataset(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.IncCatalogError("get_dataset")
	}
	return rec, err
}

// ListDatasets returns all datasets, most recently registered first.
func (s *Store) ListDatasets(ctx context.Context) ([]*DatasetRecord, error) {
	rows, err := s.db.QueryContext(ctx, datasetSelect+" ORDER BY registered_at_ms DESC, id")
	if err != nil {
		metrics.IncCatalogError("list_datasets")
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*DatasetRecord
	for rows.Next() {
		rec, err := scanDataset(rows)
		if err != nil {
			metrics.IncCatalogError("list_datasets")
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		metrics.IncCatalogError("list_datasets")
		return nil, err
	}
	return out, nil
}

// DeleteDataset removes a dataset and, via the foreign key, its runs.
func (s *Store) DeleteDataset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM datasets WHERE id = ?", id)
	if err != nil {
		metrics.IncCatalogError("delete_dataset")
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: dataset %q", ErrNotFound, id)
	}
	return nil
}

// --- Run CRUD ---

// RecordRunStart inserts a new run in "running" state.
func (s *Store) RecordRunStart(ctx context.Context, run *RunRecord) error {
	query := `
	INSERT INTO runs (id, dataset_id, started_at_ms, finished_at_ms, status, error, report_path, columns, rows)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.DatasetID, timeToMs(run.StartedAt), timeToNullMs(run.FinishedAt),
		run.Status, run.Error, run.ReportPath, run.Columns, run.Rows,
	)
	if err != nil {
		metrics.IncCatalogError("record_run_start")
	}
	return err
}

// RecordRunResult finalizes a run. A successful run also stamps the
// dataset's last_profiled_at, in the same transaction.
func (s *Store) RecordRunResult(ctx context.Context, run *RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.IncCatalogError("record_run_result")
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE runs SET
			finished_at_ms = ?, status = ?, error = ?, report_path = ?, columns = ?, rows = ?
		WHERE id = ?`,
		timeToNullMs(run.FinishedAt), run.Status, run.Error, run.ReportPath,
		run.Columns, run.Rows, run.ID,
	)
	if err != nil {
		metrics.IncCatalogError("record_run_result")
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: run %q", ErrNotFound, run.ID)
	}

	if run.Status == RunStatusSuccess {
		if _, err := tx.ExecContext(ctx,
			"UPDATE datasets SET last_profiled_at_ms = ? WHERE id = ?",
			timeToNullMs(run.FinishedAt), run.DatasetID,
		); err != nil {
			metrics.IncCatalogError("record_run_result")
			return err
		}
	}
	return tx.Commit()
}

// GetRun returns the run record for id, or ErrNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, runSelect+" WHERE id = ?", id)
	rec, err := scanRun(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.IncCatalogError("get_run")
	}
	return rec, err
}

// ListRuns returns the runs of a dataset, most recent first. A non-positive
// limit keeps the default of 50.
func (s *Store) ListRuns(ctx context.Context, datasetID string, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		runSelect+" WHERE dataset_id = ? ORDER BY started_at_ms DESC, id LIMIT ?",
		datasetID, limit,
	)
	if err != nil {
		metrics.IncCatalogError("list_runs")
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			metrics.IncCatalogError("list_runs")
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		metrics.IncCatalogError("list_runs")
		return nil, err
	}
	return out, nil
}

// --- Helpers ---

const (
	datasetSelect = `SELECT id, name, source, path, fingerprint, rows, cols, size_bytes,
		registered_at_ms, last_profiled_at_ms FROM datasets`
	runSelect = `SELECT id, dataset_id, started_at_ms, finished_at_ms, status,
		error, report_path, columns, rows FROM runs`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(scanner rowScanner) (*DatasetRecord, error) {
	var rec DatasetRecord
	var registeredAt int64
	var lastProfiledAt sql.NullInt64
	err := scanner.Scan(
		&rec.ID, &rec.Name, &rec.Source, &rec.Path, &rec.Fingerprint,
		&rec.Rows, &rec.Columns, &rec.SizeBytes, &registeredAt, &lastProfiledAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.RegisteredAt = msToTime(registeredAt)
	rec.LastProfiledAt = nullMsToTime(lastProfiledAt)
	return &rec, nil
}

func scanRun(scanner rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var startedAt int64
	var finishedAt sql.NullInt64
	var errMsg, reportPath sql.NullString
	err := scanner.Scan(
		&rec.ID, &rec.DatasetID, &startedAt, &finishedAt, &rec.Status,
		&errMsg, &reportPath, &rec.Columns, &rec.Rows,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.StartedAt = msToTime(startedAt)
	rec.FinishedAt = nullMsToTime(finishedAt)
	rec.Error = errMsg.String
	rec.ReportPath = reportPath.String
	return &rec, nil
}

func timeToMs(t time.Time) int64 { return t.UnixMilli() }

func timeToNullMs(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func msToTime(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func nullMsToTime(ms sql.NullInt64) time.Time {
	if !ms.Valid {
		return time.Time{}
	}
	return time.UnixMilli(ms.Int64).UTC()
}
