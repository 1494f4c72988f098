// SPDX-License-Identifier: MIT

package describe

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// NumericSummary holds the descriptive statistics of a numeric sample.
// Moments that are undefined for the sample size are NaN and serialize as
// null.
type NumericSummary struct {
	Column   string `json:"column"`
	Group    string `json:"group,omitempty"`
	Count    int    `json:"count"`
	Missing  int    `json:"missing"`
	Mean     Float  `json:"mean"`
	Std      Float  `json:"std"`
	Variance Float  `json:"variance"`
	Min      Float  `json:"min"`
	Q1       Float  `json:"q1"`
	Median   Float  `json:"median"`
	Q3       Float  `json:"q3"`
	Max      Float  `json:"max"`
	IQR      Float  `json:"iqr"`
	Range    Float  `json:"range"`
	Skewness Float  `json:"skewness"`
	Kurtosis Float  `json:"kurtosis"`
	Sum      Float  `json:"sum"`
}

// NumericValues summarises a numeric sample. values must not contain NaN;
// missing is reported verbatim. Quantiles use the empirical method.
func NumericValues(column string, values []float64, missing int) NumericSummary {
	s := NumericSummary{Column: column, Count: len(values), Missing: missing}

	nan := Float(math.NaN())
	if len(values) == 0 {
		s.Mean, s.Std, s.Variance = nan, nan, nan
		s.Min, s.Q1, s.Median, s.Q3, s.Max = nan, nan, nan, nan, nan
		s.IQR, s.Range, s.Skewness, s.Kurtosis = nan, nan, nan, nan
		s.Sum = 0
		return s
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range values {
		sum += v
	}
	s.Sum = Float(sum)
	s.Mean = Float(stat.Mean(values, nil))
	s.Min = Float(sorted[0])
	s.Max = Float(sorted[len(sorted)-1])
	s.Range = s.Max - s.Min
	s.Q1 = Float(stat.Quantile(0.25, stat.Empirical, sorted, nil))
	s.Median = Float(stat.Quantile(0.5, stat.Empirical, sorted, nil))
	s.Q3 = Float(stat.Quantile(0.75, stat.Empirical, sorted, nil))
	s.IQR = s.Q3 - s.Q1

	if len(values) < 2 {
		s.Std, s.Variance, s.Skewness, s.Kurtosis = nan, nan, nan, nan
		return s
	}

	variance := stat.Variance(values, nil)
	s.Variance = Float(variance)
	s.Std = Float(math.Sqrt(variance))

	// Higher moments need spread and enough observations.
	if variance == 0 || len(values) < 3 {
		s.Skewness = nan
	} else {
		s.Skewness = Float(stat.Skew(values, nil))
	}
	if variance == 0 || len(values) < 4 {
		s.Kurtosis = nan
	} else {
		s.Kurtosis = Float(stat.ExKurtosis(values, nil))
	}
	return s
}
