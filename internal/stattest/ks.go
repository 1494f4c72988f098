// SPDX-License-Identifier: MIT

package stattest

import (
	"fmt"
	"math"
	"sort"
)

// KolmogorovSmirnov tests whether x was drawn from the continuous
// distribution described by cdf (one-sample, two-sided). The p-value uses
// the asymptotic Kolmogorov distribution with the finite-sample correction
// of the effective sample size.
func KolmogorovSmirnov(x []float64, cdf func(float64) float64, alpha float64) (Result, error) {
	alpha, err := checkAlpha(alpha)
	if err != nil {
		return Result{}, err
	}
	n := len(x)
	if n < 2 {
		return Result{}, fmt.Errorf("%w: one-sample KS test needs at least 2 observations, got %d", ErrSampleTooSmall, n)
	}
	if cdf == nil {
		return Result{}, fmt.Errorf("stattest: one-sample KS test needs a reference CDF")
	}

	sorted := make([]float64, n)
	copy(sorted, x)
	sort.Float64s(sorted)

	var d float64
	for i, v := range sorted {
		f := clamp01(cdf(v))
		above := float64(i+1)/float64(n) - f
		below := f - float64(i)/float64(n)
		d = math.Max(d, math.Max(above, below))
	}

	p := kolmogorovP(d, float64(n))

	return newResult(
		"ks_one_sample",
		"the sample follows the reference distribution",
		"the sample does not follow the reference distribution",
		d, p, 0, alpha,
	), nil
}

// KolmogorovSmirnovTwoSample tests whether two independent samples were
// drawn from the same continuous distribution.
func KolmogorovSmirnovTwoSample(x, y []float64, alpha float64) (Result, error) {
	alpha, err := checkAlpha(alpha)
	if err != nil {
		return Result{}, err
	}
	n1, n2 := len(x), len(y)
	if n1 < 2 || n2 < 2 {
		return Result{}, fmt.Errorf("%w: two-sample KS test needs at least 2 observations per sample, got %d and %d", ErrSampleTooSmall, n1, n2)
	}

	s1 := make([]float64, n1)
	copy(s1, x)
	sort.Float64s(s1)
	s2 := make([]float64, n2)
	copy(s2, y)
	sort.Float64s(s2)

	// Walk both empirical CDFs over the merged order.
	var d, f1, f2 float64
	i, j := 0, 0
	for i < n1 && j < n2 {
		v1, v2 := s1[i], s2[j]
		v := math.Min(v1, v2)
		for i < n1 && s1[i] == v {
			i++
		}
		for j < n2 && s2[j] == v {
			j++
		}
		f1 = float64(i) / float64(n1)
		f2 = float64(j) / float64(n2)
		d = math.Max(d, math.Abs(f1-f2))
	}

	ne := float64(n1) * float64(n2) / float64(n1+n2)
	p := kolmogorovP(d, ne)

	return newResult(
		"ks_two_sample",
		"both samples follow the same distribution",
		"the samples follow different distributions",
		d, p, 0, alpha,
	), nil
}

// kolmogorovP evaluates the asymptotic two-sided Kolmogorov p-value
// Q(lambda) = 2 * sum_{k>=1} (-1)^{k-1} exp(-2 k^2 lambda^2) with the
// effective sample size correction lambda = (sqrt(ne)+0.12+0.11/sqrt(ne))*d.
func kolmogorovP(d, ne float64) float64 {
	if d <= 0 {
		return 1
	}
	sq := math.Sqrt(ne)
	lambda := (sq + 0.12 + 0.11/sq) * d

	var sum float64
	sign := 1.0
	for k := 1; k <= 100; k++ {
		term := math.Exp(-2 * float64(k*k) * lambda * lambda)
		sum += sign * term
		if term < 1e-10 {
			break
		}
		sign = -sign
	}
	return clamp01(2 * sum)
}
