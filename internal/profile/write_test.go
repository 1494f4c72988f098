// SPDX-License-Identifier: MIT

package profile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-james-ai/d8analysis/internal/dataset"
)

func TestWriteReportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	report := &Report{
		DatasetID:   "sales-abc123",
		DatasetName: "sales",
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Overview:    dataset.OverviewStats{Rows: 5, Columns: 2},
		Columns: []ColumnProfile{
			{ColumnInfo: dataset.ColumnInfo{Name: "price", Kind: dataset.KindNumeric}},
			{ColumnInfo: dataset.ColumnInfo{Name: "region", Kind: dataset.KindCategorical}},
		},
	}

	path, err := WriteReport(context.Background(), dir, report)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sales-abc123.json"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	got, err := ReadReport(dir, "sales-abc123")
	require.NoError(t, err)
	if diff := cmp.Diff(report, got); diff != "" {
		t.Errorf("report changed across write/read (-want +got):\n%s", diff)
	}
}

func TestWriteReportCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	report := &Report{DatasetID: "ds-1"}

	path, err := WriteReport(context.Background(), dir, report)
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestWriteReportDirIsFile(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := WriteReport(context.Background(), blocker, &Report{DatasetID: "ds-1"})
	assert.Error(t, err)
}

func TestReadReportMissing(t *testing.T) {
	_, err := ReadReport(t.TempDir(), "unknown")
	assert.Error(t, err)
}

func TestReadReportCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))

	_, err := ReadReport(dir, "bad")
	assert.Error(t, err)
}
