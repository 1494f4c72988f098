// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/john-james-ai/d8analysis/internal/catalog"
	"github.com/john-james-ai/d8analysis/internal/dataset"
)

// ErrDatasetChanged means the file behind a record no longer matches the
// fingerprint captured at registration.
var ErrDatasetChanged = errors.New("dataset changed on disk since registration")

// FileLoader loads datasets from the path stored in their catalog record.
type FileLoader struct {
	// Options apply to every read. Name is always taken from the record.
	Options dataset.ReadOptions
}

// Load parses the CSV behind the record. A fingerprint mismatch means the
// file changed since registration; the stale record must not be profiled
// under the old identity.
func (l *FileLoader) Load(ctx context.Context, rec *catalog.DatasetRecord) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := l.Options
	opts.Name = rec.Name

	ds, err := dataset.ReadFile(rec.Path, opts)
	if err != nil {
		return nil, err
	}
	if rec.Fingerprint != "" && ds.Fingerprint() != rec.Fingerprint {
		return nil, fmt.Errorf("%w: dataset %q (re-register it)", ErrDatasetChanged, rec.ID)
	}
	return ds, nil
}
