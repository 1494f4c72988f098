// SPDX-License-Identifier: MIT

package stattest

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquareGoodnessOfFit tests observed counts against expected counts or
// proportions. Expected values are rescaled so both sides share the observed
// total, which lets callers pass raw proportions. ddof reduces the degrees
// of freedom by the number of parameters estimated from the data.
func ChiSquareGoodnessOfFit(observed, expected []float64, ddof int, alpha float64) (Result, error) {
	alpha, err := checkAlpha(alpha)
	if err != nil {
		return Result{}, err
	}
	if len(observed) != len(expected) {
		return Result{}, fmt.Errorf("%w: observed has %d cells, expected has %d", ErrLengthMismatch, len(observed), len(expected))
	}
	k := len(observed)
	if k < 2 {
		return Result{}, fmt.Errorf("%w: goodness of fit needs at least 2 cells, got %d", ErrSampleTooSmall, k)
	}

	var obsTotal, expTotal float64
	for i := 0; i < k; i++ {
		if observed[i] < 0 || expected[i] < 0 {
			return Result{}, fmt.Errorf("%w: counts must be non-negative", ErrBadCounts)
		}
		obsTotal += observed[i]
		expTotal += expected[i]
	}
	if obsTotal <= 0 {
		return Result{}, fmt.Errorf("%w: observed counts sum to zero", ErrBadCounts)
	}
	if expTotal <= 0 {
		return Result{}, fmt.Errorf("%w: expected counts sum to zero", ErrBadCounts)
	}

	df := float64(k - 1 - ddof)
	if df < 1 {
		return Result{}, fmt.Errorf("%w: %d cells leave no degrees of freedom with ddof=%d", ErrSampleTooSmall, k, ddof)
	}

	scale := obsTotal / expTotal
	var chi2 float64
	for i := 0; i < k; i++ {
		e := expected[i] * scale
		if e == 0 {
			return Result{}, fmt.Errorf("%w: expected count for cell %d is zero", ErrBadCounts, i)
		}
		d := observed[i] - e
		chi2 += d * d / e
	}

	p := distuv.ChiSquared{K: df}.Survival(chi2)

	return newResult(
		"chi_square_gof",
		"observed frequencies follow the expected distribution",
		"observed frequencies do not follow the expected distribution",
		chi2, p, df, alpha,
	), nil
}

// ChiSquareIndependence tests independence of the two factors of a
// contingency table of counts. Expected cell counts come from the marginal
// totals; degrees of freedom are (rows-1)*(cols-1).
func ChiSquareIndependence(table [][]float64, alpha float64) (Result, error) {
	alpha, err := checkAlpha(alpha)
	if err != nil {
		return Result{}, err
	}
	rows := len(table)
	if rows < 2 {
		return Result{}, fmt.Errorf("%w: contingency table needs at least 2 rows, got %d", ErrSampleTooSmall, rows)
	}
	cols := len(table[0])
	if cols < 2 {
		return Result{}, fmt.Errorf("%w: contingency table needs at least 2 columns, got %d", ErrSampleTooSmall, cols)
	}

	rowSum := make([]float64, rows)
	colSum := make([]float64, cols)
	var total float64
	for i, row := range table {
		if len(row) != cols {
			return Result{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrBadCounts, i, len(row), cols)
		}
		for j, v := range row {
			if v < 0 {
				return Result{}, fmt.Errorf("%w: cell (%d,%d) is negative", ErrBadCounts, i, j)
			}
			rowSum[i] += v
			colSum[j] += v
			total += v
		}
	}
	if total <= 0 {
		return Result{}, fmt.Errorf("%w: table sums to zero", ErrBadCounts)
	}
	for i, s := range rowSum {
		if s == 0 {
			return Result{}, fmt.Errorf("%w: row %d has no observations", ErrBadCounts, i)
		}
	}
	for j, s := range colSum {
		if s == 0 {
			return Result{}, fmt.Errorf("%w: column %d has no observations", ErrBadCounts, j)
		}
	}

	var chi2 float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			e := rowSum[i] * colSum[j] / total
			d := table[i][j] - e
			chi2 += d * d / e
		}
	}

	df := float64((rows - 1) * (cols - 1))
	p := distuv.ChiSquared{K: df}.Survival(chi2)

	return newResult(
		"chi_square_independence",
		"the row and column factors are independent",
		"the row and column factors are associated",
		chi2, p, df, alpha,
	), nil
}
