// SPDX-License-Identifier: MIT

package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	d8log "github.com/john-james-ai/d8analysis/internal/log"
	"github.com/john-james-ai/d8analysis/internal/metrics"
)

// WriteReport persists the report as indented JSON under dir, named after
// the dataset id. The write is atomic and durable: renameio fsyncs the
// temp file before the rename, so readers never observe a partial report.
func WriteReport(ctx context.Context, dir string, report *Report) (string, error) {
	logger := d8log.FromContext(ctx)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		metrics.IncProfileStageFailure("write")
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, report.DatasetID+".json")

	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		metrics.IncProfileStageFailure("write")
		return "", fmt.Errorf("create pending report file: %w", err)
	}
	defer func() {
		// Cleanup removes the temp file when the write was not committed.
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending report file")
		}
	}()

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		metrics.IncProfileStageFailure("write")
		return "", fmt.Errorf("encode report: %w", err)
	}
	if _, err := pendingFile.Write(data); err != nil {
		metrics.IncProfileStageFailure("write")
		return "", fmt.Errorf("write report data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		metrics.IncProfileStageFailure("write")
		return "", fmt.Errorf("atomically replace report file: %w", err)
	}

	logger.Info().
		Str("event", "profile.report_written").
		Str(d8log.FieldDatasetID, report.DatasetID).
		Str(d8log.FieldReportPath, path).
		Msg("report written")
	return path, nil
}

// ReadReport loads a previously written report from dir.
func ReadReport(dir, datasetID string) (*Report, error) {
	data, err := os.ReadFile(filepath.Join(dir, datasetID+".json"))
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}
