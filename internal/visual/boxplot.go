// SPDX-License-Identifier: MIT

package visual

import (
	"fmt"

	"github.com/john-james-ai/d8analysis/internal/dataset"
	"github.com/john-james-ai/d8analysis/internal/describe"
)

// BoxPlot computes box-and-whisker geometry for a numeric column. Whiskers
// stop at the farthest observations within 1.5 IQR of the quartiles;
// observations beyond the whiskers are listed as outliers.
func BoxPlot(col *dataset.Column) (*ChartConfig, error) {
	if col.Kind() != dataset.KindNumeric {
		return nil, fmt.Errorf("%w: box plot needs a numeric column, %q is %s", dataset.ErrKindMismatch, col.Name(), col.Kind())
	}
	values := col.Floats()
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: column %q has no non-missing values", dataset.ErrNoRows, col.Name())
	}

	s := describe.NumericValues(col.Name(), values, col.Nulls())
	q1 := float64(s.Q1)
	q3 := float64(s.Q3)
	iqr := q3 - q1
	loFence := q1 - 1.5*iqr
	hiFence := q3 + 1.5*iqr

	box := &BoxStats{
		Min:      float64(s.Min),
		Q1:       q1,
		Median:   float64(s.Median),
		Q3:       q3,
		Max:      float64(s.Max),
		Outliers: []float64{},
	}
	// Whiskers reach the extreme observations inside the fences. The
	// quartiles themselves are observations, so both bounds always settle.
	box.WhiskerLow = float64(s.Max)
	box.WhiskerHigh = float64(s.Min)
	for _, v := range values {
		if v < loFence || v > hiFence {
			box.Outliers = append(box.Outliers, v)
			continue
		}
		if v < box.WhiskerLow {
			box.WhiskerLow = v
		}
		if v > box.WhiskerHigh {
			box.WhiskerHigh = v
		}
	}

	return &ChartConfig{
		Type:   TypeBox,
		Title:  col.Name(),
		YLabel: col.Name(),
		Box:    box,
	}, nil
}
