// SPDX-License-Identifier: MIT

package describe

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/john-james-ai/d8analysis/internal/dataset"
)

// CorrelationMatrix computes the pairwise Pearson correlation matrix over
// the numeric columns of a dataset. Each pair uses its complete observations
// only; pairs with fewer than two complete rows or without spread are NaN.
func CorrelationMatrix(ds *dataset.Dataset) ([]string, [][]float64, error) {
	var cols []*dataset.Column
	for _, name := range ds.Columns() {
		col, err := ds.Column(name)
		if err != nil {
			return nil, nil, err
		}
		if col.Kind() == dataset.KindNumeric {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("describe: dataset %q has no numeric columns", ds.Name())
	}

	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name()
	}

	matrix := make([][]float64, len(cols))
	for i := range matrix {
		matrix[i] = make([]float64, len(cols))
	}
	for i := 0; i < len(cols); i++ {
		matrix[i][i] = diagonal(cols[i])
		for j := i + 1; j < len(cols); j++ {
			r := pairCorrelation(cols[i], cols[j])
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}
	return names, matrix, nil
}

// diagonal is 1 for a column that could correlate with anything and NaN for
// a degenerate one.
func diagonal(col *dataset.Column) float64 {
	values := col.Floats()
	if len(values) < 2 {
		return math.NaN()
	}
	if _, variance := stat.MeanVariance(values, nil); variance == 0 {
		return math.NaN()
	}
	return 1
}

// pairCorrelation computes Pearson's r over the rows where both columns have
// a value, clamped into [-1, 1].
func pairCorrelation(a, b *dataset.Column) float64 {
	var xs, ys []float64
	for i := 0; i < a.Len(); i++ {
		if a.IsMissing(i) || b.IsMissing(i) {
			continue
		}
		xs = append(xs, a.Float(i))
		ys = append(ys, b.Float(i))
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	if _, v := stat.MeanVariance(xs, nil); v == 0 {
		return math.NaN()
	}
	if _, v := stat.MeanVariance(ys, nil); v == 0 {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	switch {
	case r > 1:
		return 1
	case r < -1:
		return -1
	}
	return r
}
