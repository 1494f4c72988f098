// SPDX-License-Identifier: MIT

// Package stattest implements the hypothesis tests exposed by the analysis
// API: one and two sample t-tests, chi-square tests, Kolmogorov-Smirnov
// tests and correlation tests. Every test returns a Result with the
// statistic, the p-value and the decision at the chosen significance level.
package stattest

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// DefaultAlpha is the significance level used when a caller passes 0.
const DefaultAlpha = 0.05

var (
	// ErrSampleTooSmall indicates a sample with too few observations for the test.
	ErrSampleTooSmall = errors.New("stattest: sample too small")
	// ErrZeroVariance indicates a sample without spread where spread is required.
	ErrZeroVariance = errors.New("stattest: zero variance")
	// ErrLengthMismatch indicates paired samples of different lengths.
	ErrLengthMismatch = errors.New("stattest: sample lengths differ")
	// ErrInvalidAlpha indicates a significance level outside (0, 1).
	ErrInvalidAlpha = errors.New("stattest: alpha must be in (0, 1)")
	// ErrBadCounts indicates invalid observed or expected counts.
	ErrBadCounts = errors.New("stattest: invalid counts")
)

// Result is the outcome of a hypothesis test. Reject is true exactly when
// PValue < Alpha.
type Result struct {
	Test      string  `json:"test"`
	H0        string  `json:"h0"`
	H1        string  `json:"h1"`
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	DF        float64 `json:"df,omitempty"`
	Alpha     float64 `json:"alpha"`
	Reject    bool    `json:"reject"`
	Verdict   string  `json:"verdict"`
}

// newResult assembles a Result, clamping the p-value into [0, 1] and
// deriving the decision and verdict line.
func newResult(test, h0, h1 string, statistic, p, df, alpha float64) Result {
	p = clamp01(p)
	r := Result{
		Test:      test,
		H0:        h0,
		H1:        h1,
		Statistic: statistic,
		PValue:    p,
		DF:        df,
		Alpha:     alpha,
		Reject:    p < alpha,
	}
	if r.Reject {
		r.Verdict = fmt.Sprintf("reject H0 at alpha=%.3g (statistic=%.4g, p=%.4g)", alpha, statistic, p)
	} else {
		r.Verdict = fmt.Sprintf("fail to reject H0 at alpha=%.3g (statistic=%.4g, p=%.4g)", alpha, statistic, p)
	}
	return r
}

// checkAlpha validates the significance level and substitutes the default
// for the zero value.
func checkAlpha(alpha float64) (float64, error) {
	if alpha == 0 {
		return DefaultAlpha, nil
	}
	if alpha < 0 || alpha >= 1 {
		return 0, fmt.Errorf("%w: got %g", ErrInvalidAlpha, alpha)
	}
	return alpha, nil
}

func clamp01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// moments returns the sample mean and the unbiased sample variance.
func moments(x []float64) (mean, variance float64) {
	mean = stat.Mean(x, nil)
	variance = stat.Variance(x, nil)
	return mean, variance
}
