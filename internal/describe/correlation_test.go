// SPDX-License-Identifier: MIT

package describe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-james-ai/d8analysis/internal/dataset"
)

func TestCorrelationMatrix(t *testing.T) {
	ds, err := dataset.New("corr", []*dataset.Column{
		dataset.NewNumericColumn("a", []float64{1, 2, 3, 4, 5}),
		dataset.NewNumericColumn("b", []float64{2, 4, 6, 8, 10}),
		dataset.NewNumericColumn("c", []float64{5, 4, 3, 2, 1}),
		dataset.NewCategoricalColumn("label", []string{"x", "y", "x", "y", "x"}),
	})
	require.NoError(t, err)

	names, matrix, err := CorrelationMatrix(ds)
	require.NoError(t, err)

	// Categorical columns never enter the matrix.
	assert.Equal(t, []string{"a", "b", "c"}, names)
	require.Len(t, matrix, 3)

	for i := range matrix {
		assert.InDelta(t, 1.0, matrix[i][i], 1e-12)
	}
	assert.InDelta(t, 1.0, matrix[0][1], 1e-9)
	assert.InDelta(t, -1.0, matrix[0][2], 1e-9)
	assert.InDelta(t, matrix[1][2], matrix[2][1], 1e-12)
}

func TestCorrelationMatrixPairwiseComplete(t *testing.T) {
	nan := math.NaN()
	ds, err := dataset.New("corr", []*dataset.Column{
		dataset.NewNumericColumn("a", []float64{1, 2, 3, 4, 5}),
		dataset.NewNumericColumn("d", []float64{1, nan, 2, nan, 3}),
	})
	require.NoError(t, err)

	_, matrix, err := CorrelationMatrix(ds)
	require.NoError(t, err)

	// Complete pairs are rows 0, 2, 4: both strictly increasing.
	assert.InDelta(t, 1.0, matrix[0][1], 1e-9)
}

func TestCorrelationMatrixDegenerate(t *testing.T) {
	ds, err := dataset.New("corr", []*dataset.Column{
		dataset.NewNumericColumn("a", []float64{1, 2, 3}),
		dataset.NewNumericColumn("flat", []float64{7, 7, 7}),
	})
	require.NoError(t, err)

	_, matrix, err := CorrelationMatrix(ds)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(matrix[0][1]))
	assert.True(t, math.IsNaN(matrix[1][1]))
	assert.InDelta(t, 1.0, matrix[0][0], 1e-12)
}

func TestCorrelationMatrixNoNumericColumns(t *testing.T) {
	ds, err := dataset.New("corr", []*dataset.Column{
		dataset.NewCategoricalColumn("label", []string{"x", "y"}),
	})
	require.NoError(t, err)

	_, _, err = CorrelationMatrix(ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no numeric columns")
}
