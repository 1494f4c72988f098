// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/john-james-ai/d8analysis/internal/catalog"
	"github.com/john-james-ai/d8analysis/internal/dataset"
	d8log "github.com/john-james-ai/d8analysis/internal/log"
	"github.com/john-james-ai/d8analysis/internal/metrics"
)

// RegisterOptions controls how a file becomes a catalog entry.
type RegisterOptions struct {
	// Name overrides the dataset name. Defaults to the file base name.
	Name string
	// Source records how the dataset arrived: upload, path or remote.
	Source string
	// Delimiter overrides CSV delimiter sniffing.
	Delimiter rune
	// SampleRows bounds kind inference. Zero keeps the reader default.
	SampleRows int
}

// RegisterFile parses the CSV at path and upserts it into the catalog.
// The dataset id derives from the content fingerprint, so registering the
// same file twice is idempotent while a changed file yields a new entry.
func RegisterFile(ctx context.Context, cat *catalog.Store, path string, opts RegisterOptions) (*catalog.DatasetRecord, error) {
	logger := d8log.WithComponentFromContext(ctx, "jobs")

	name := strings.TrimSpace(opts.Name)
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	source := opts.Source
	if source == "" {
		source = "path"
	}

	start := time.Now()
	ds, err := dataset.ReadFile(path, dataset.ReadOptions{
		Name:       name,
		Delimiter:  opts.Delimiter,
		SampleRows: opts.SampleRows,
	})
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	metrics.RecordDatasetRead(ds.Len(), time.Since(start).Seconds())

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}

	rec := &catalog.DatasetRecord{
		ID:           ds.ID(),
		Name:         name,
		Source:       source,
		Path:         path,
		Fingerprint:  ds.Fingerprint(),
		Rows:         ds.Len(),
		Columns:      len(ds.Columns()),
		SizeBytes:    info.Size(),
		RegisteredAt: time.Now(),
	}
	if err := cat.PutDataset(ctx, rec); err != nil {
		return nil, fmt.Errorf("register dataset: %w", err)
	}
	metrics.IncDatasetRegistered(source)

	logger.Info().
		Str("event", "dataset.registered").
		Str(d8log.FieldDatasetID, rec.ID).
		Str("name", rec.Name).
		Str("source", source).
		Int(d8log.FieldRows, rec.Rows).
		Int(d8log.FieldColumns, rec.Columns).
		Msg("dataset registered")
	return rec, nil
}
