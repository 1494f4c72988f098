// SPDX-License-Identifier: MIT

package stattest

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// PearsonCorrelation tests whether two paired samples are linearly
// uncorrelated. The statistic is the sample correlation coefficient r; the
// p-value uses the exact t transform with n-2 degrees of freedom.
func PearsonCorrelation(x, y []float64, alpha float64) (Result, error) {
	r, p, df, alpha, err := correlation(x, y, alpha)
	if err != nil {
		return Result{}, err
	}
	return newResult(
		"pearson_correlation",
		"the variables are linearly uncorrelated",
		"the variables are linearly correlated",
		r, p, df, alpha,
	), nil
}

// SpearmanCorrelation tests for a monotonic association between two paired
// samples: Pearson's test applied to fractional ranks with ties sharing
// their average rank.
func SpearmanCorrelation(x, y []float64, alpha float64) (Result, error) {
	if len(x) != len(y) {
		return Result{}, fmt.Errorf("%w: got %d and %d", ErrLengthMismatch, len(x), len(y))
	}
	r, p, df, alpha, err := correlation(Ranks(x), Ranks(y), alpha)
	if err != nil {
		return Result{}, err
	}
	return newResult(
		"spearman_correlation",
		"the variables are not monotonically associated",
		"the variables are monotonically associated",
		r, p, df, alpha,
	), nil
}

func correlation(x, y []float64, alpha float64) (r, p, df, a float64, err error) {
	alpha, err = checkAlpha(alpha)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if len(x) != len(y) {
		return 0, 0, 0, 0, fmt.Errorf("%w: got %d and %d", ErrLengthMismatch, len(x), len(y))
	}
	n := len(x)
	if n < 3 {
		return 0, 0, 0, 0, fmt.Errorf("%w: correlation test needs at least 3 pairs, got %d", ErrSampleTooSmall, n)
	}
	if _, vx := moments(x); vx == 0 {
		return 0, 0, 0, 0, fmt.Errorf("%w: first sample is constant", ErrZeroVariance)
	}
	if _, vy := moments(y); vy == 0 {
		return 0, 0, 0, 0, fmt.Errorf("%w: second sample is constant", ErrZeroVariance)
	}

	r = stat.Correlation(x, y, nil)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}

	df = float64(n - 2)
	if r == 1 || r == -1 {
		return r, 0, df, alpha, nil
	}
	t := r * math.Sqrt(df/(1-r*r))
	p = 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))
	return r, p, df, alpha, nil
}

// Ranks returns the 1-based fractional ranks of x. Tied values share the
// average of the ranks they span.
func Ranks(x []float64) []float64 {
	n := len(x)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && x[idx[j]] == x[idx[i]] {
			j++
		}
		// Ranks i+1..j averaged over the tie run.
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}
	return ranks
}
