// SPDX-License-Identifier: MIT

package stattest

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// OneSampleT tests whether the mean of x equals mu0 (two-sided Student
// t-test with n-1 degrees of freedom).
func OneSampleT(x []float64, mu0, alpha float64) (Result, error) {
	alpha, err := checkAlpha(alpha)
	if err != nil {
		return Result{}, err
	}
	n := len(x)
	if n < 2 {
		return Result{}, fmt.Errorf("%w: one-sample t-test needs at least 2 observations, got %d", ErrSampleTooSmall, n)
	}
	mean, variance := moments(x)
	if variance == 0 {
		return Result{}, fmt.Errorf("%w: one-sample t-test is undefined for a constant sample", ErrZeroVariance)
	}

	se := math.Sqrt(variance / float64(n))
	t := (mean - mu0) / se
	df := float64(n - 1)
	p := 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))

	return newResult(
		"one_sample_t",
		fmt.Sprintf("mean = %g", mu0),
		fmt.Sprintf("mean != %g", mu0),
		t, p, df, alpha,
	), nil
}

// TwoSampleT tests whether the means of two independent samples are equal.
// Variances are not assumed equal: the statistic is Welch's t and the
// degrees of freedom follow the Welch-Satterthwaite approximation.
func TwoSampleT(x, y []float64, alpha float64) (Result, error) {
	alpha, err := checkAlpha(alpha)
	if err != nil {
		return Result{}, err
	}
	n1, n2 := len(x), len(y)
	if n1 < 2 || n2 < 2 {
		return Result{}, fmt.Errorf("%w: two-sample t-test needs at least 2 observations per sample, got %d and %d", ErrSampleTooSmall, n1, n2)
	}
	m1, v1 := moments(x)
	m2, v2 := moments(y)
	if v1 == 0 && v2 == 0 {
		return Result{}, fmt.Errorf("%w: two-sample t-test is undefined when both samples are constant", ErrZeroVariance)
	}

	se1 := v1 / float64(n1)
	se2 := v2 / float64(n2)
	se := se1 + se2
	t := (m1 - m2) / math.Sqrt(se)

	df := se * se / (se1*se1/float64(n1-1) + se2*se2/float64(n2-1))
	p := 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))

	return newResult(
		"two_sample_t",
		"mean(x) = mean(y)",
		"mean(x) != mean(y)",
		t, p, df, alpha,
	), nil
}
