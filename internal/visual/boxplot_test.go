// SPDX-License-Identifier: MIT

package visual

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-james-ai/d8analysis/internal/dataset"
)

func TestBoxPlot(t *testing.T) {
	// Quartiles: Q1=2, median=3, Q3=5, IQR=3, fences [-2.5, 9.5].
	col := dataset.NewNumericColumn("latency", []float64{1, 2, 3, 4, 5, 100})

	cfg, err := BoxPlot(col)
	require.NoError(t, err)

	assert.Equal(t, TypeBox, cfg.Type)
	require.NotNil(t, cfg.Box)
	box := cfg.Box

	assert.InDelta(t, 1.0, box.Min, 1e-12)
	assert.InDelta(t, 2.0, box.Q1, 1e-12)
	assert.InDelta(t, 3.0, box.Median, 1e-12)
	assert.InDelta(t, 5.0, box.Q3, 1e-12)
	assert.InDelta(t, 100.0, box.Max, 1e-12)
	assert.InDelta(t, 1.0, box.WhiskerLow, 1e-12)
	assert.InDelta(t, 5.0, box.WhiskerHigh, 1e-12)
	assert.Equal(t, []float64{100}, box.Outliers)
}

func TestBoxPlotNoOutliers(t *testing.T) {
	col := dataset.NewNumericColumn("even", []float64{1, 2, 3, 4, 5})

	cfg, err := BoxPlot(col)
	require.NoError(t, err)

	assert.Empty(t, cfg.Box.Outliers)
	assert.InDelta(t, cfg.Box.Min, cfg.Box.WhiskerLow, 1e-12)
	assert.InDelta(t, cfg.Box.Max, cfg.Box.WhiskerHigh, 1e-12)
}

func TestBoxPlotSingleValue(t *testing.T) {
	col := dataset.NewNumericColumn("one", []float64{7})

	cfg, err := BoxPlot(col)
	require.NoError(t, err)

	assert.InDelta(t, 7.0, cfg.Box.Median, 1e-12)
	assert.InDelta(t, 7.0, cfg.Box.WhiskerLow, 1e-12)
	assert.InDelta(t, 7.0, cfg.Box.WhiskerHigh, 1e-12)
	assert.Empty(t, cfg.Box.Outliers)
}

func TestBoxPlotErrors(t *testing.T) {
	_, err := BoxPlot(dataset.NewCategoricalColumn("label", []string{"a"}))
	assert.ErrorIs(t, err, dataset.ErrKindMismatch)

	_, err = BoxPlot(dataset.NewNumericColumn("empty", nil))
	assert.ErrorIs(t, err, dataset.ErrNoRows)
}
