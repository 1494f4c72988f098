// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-james-ai/d8analysis/internal/catalog"
)

func TestRegisterFile(t *testing.T) {
	dir := t.TempDir()
	cat, err := catalog.Open(filepath.Join(dir, "catalog.sqlite"))
	require.NoError(t, err)
	defer cat.Close()

	path := writeTestCSV(t, dir)
	ctx := context.Background()

	rec, err := RegisterFile(ctx, cat, path, RegisterOptions{Source: "upload"})
	require.NoError(t, err)

	assert.Equal(t, "sales", rec.Name)
	assert.Equal(t, "upload", rec.Source)
	assert.Equal(t, path, rec.Path)
	assert.Equal(t, 5, rec.Rows)
	assert.Equal(t, 3, rec.Columns)
	assert.NotEmpty(t, rec.Fingerprint)
	assert.True(t, len(rec.ID) > 3 && rec.ID[:3] == "ds-", "id %q should be fingerprint-derived", rec.ID)
	assert.Greater(t, rec.SizeBytes, int64(0))

	// Registering the same file again is an idempotent upsert.
	again, err := RegisterFile(ctx, cat, path, RegisterOptions{Source: "upload"})
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.ID)

	all, err := cat.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRegisterFile_NameOverride(t *testing.T) {
	dir := t.TempDir()
	cat, err := catalog.Open(filepath.Join(dir, "catalog.sqlite"))
	require.NoError(t, err)
	defer cat.Close()

	path := writeTestCSV(t, dir)

	rec, err := RegisterFile(context.Background(), cat, path, RegisterOptions{
		Name:   "Q3 Sales",
		Source: "remote",
	})
	require.NoError(t, err)
	assert.Equal(t, "Q3 Sales", rec.Name)
	assert.Equal(t, "remote", rec.Source)
}

func TestRegisterFile_MissingFile(t *testing.T) {
	dir := t.TempDir()
	cat, err := catalog.Open(filepath.Join(dir, "catalog.sqlite"))
	require.NoError(t, err)
	defer cat.Close()

	_, err = RegisterFile(context.Background(), cat, filepath.Join(dir, "missing.csv"), RegisterOptions{})
	require.Error(t, err)
}

func TestRegisterFile_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	cat, err := catalog.Open(filepath.Join(dir, "catalog.sqlite"))
	require.NoError(t, err)
	defer cat.Close()

	path := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o600))

	_, err = RegisterFile(context.Background(), cat, path, RegisterOptions{})
	require.Error(t, err)
}
