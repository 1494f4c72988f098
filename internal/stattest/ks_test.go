// SPDX-License-Identifier: MIT

package stattest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformCDF(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}

func TestKolmogorovSmirnovUniformGrid(t *testing.T) {
	// For x_i = i/10 against U(0,1) the maximum deviation is exactly 0.1.
	x := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}
	res, err := KolmogorovSmirnov(x, uniformCDF, 0.05)
	require.NoError(t, err)

	assert.Equal(t, "ks_one_sample", res.Test)
	assert.InDelta(t, 0.1, res.Statistic, 1e-12)
	assert.Greater(t, res.PValue, 0.99)
	assert.False(t, res.Reject)
}

func TestKolmogorovSmirnovConcentratedSample(t *testing.T) {
	// All mass near zero: D = 1 - 0.05 = 0.95.
	x := []float64{0.01, 0.02, 0.03, 0.04, 0.05}
	res, err := KolmogorovSmirnov(x, uniformCDF, 0.05)
	require.NoError(t, err)

	assert.InDelta(t, 0.95, res.Statistic, 1e-12)
	assert.Less(t, res.PValue, 0.001)
	assert.Greater(t, res.PValue, 0.0)
	assert.True(t, res.Reject)
}

func TestKolmogorovSmirnovErrors(t *testing.T) {
	_, err := KolmogorovSmirnov([]float64{0.5}, uniformCDF, 0.05)
	assert.ErrorIs(t, err, ErrSampleTooSmall)

	_, err = KolmogorovSmirnov([]float64{0.1, 0.5}, nil, 0.05)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reference CDF")
}

func TestKolmogorovSmirnovTwoSampleSeparated(t *testing.T) {
	// Disjoint supports give the maximal statistic.
	res, err := KolmogorovSmirnovTwoSample(
		[]float64{1, 2, 3, 4, 5},
		[]float64{6, 7, 8, 9, 10},
		0.05,
	)
	require.NoError(t, err)

	assert.Equal(t, "ks_two_sample", res.Test)
	assert.InDelta(t, 1.0, res.Statistic, 1e-12)
	assert.Less(t, res.PValue, 0.01)
	assert.True(t, res.Reject)
}

func TestKolmogorovSmirnovTwoSampleIdentical(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	res, err := KolmogorovSmirnovTwoSample(x, x, 0.05)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, res.Statistic, 1e-12)
	assert.InDelta(t, 1.0, res.PValue, 1e-12)
	assert.False(t, res.Reject)
}

func TestKolmogorovSmirnovTwoSampleInterleaved(t *testing.T) {
	// Offset by half a step: the CDFs never drift more than one step apart.
	res, err := KolmogorovSmirnovTwoSample(
		[]float64{1, 2, 3, 4, 5, 6, 7, 8},
		[]float64{1.5, 2.5, 3.5, 4.5, 5.5, 6.5, 7.5, 8.5},
		0.05,
	)
	require.NoError(t, err)

	assert.InDelta(t, 0.125, res.Statistic, 1e-12)
	assert.False(t, res.Reject)
}

func TestKolmogorovSmirnovTwoSampleErrors(t *testing.T) {
	_, err := KolmogorovSmirnovTwoSample([]float64{1}, []float64{1, 2}, 0.05)
	assert.ErrorIs(t, err, ErrSampleTooSmall)
}
