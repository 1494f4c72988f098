// SPDX-License-Identifier: MIT

package visual

import (
	"fmt"
	"math"

	"github.com/john-james-ai/d8analysis/internal/dataset"
	"github.com/john-james-ai/d8analysis/internal/distribution"
)

// Histogram bins the non-missing values of a numeric column into equal-width
// intervals and returns bar points at the bin centers. bins <= 0 applies the
// Sturges rule. A non-nil overlay adds the fitted PDF as a second series,
// scaled to expected counts so both share the y axis.
func Histogram(col *dataset.Column, bins int, overlay distribution.Distribution) (*ChartConfig, error) {
	if col.Kind() != dataset.KindNumeric {
		return nil, fmt.Errorf("%w: histogram needs a numeric column, %q is %s", dataset.ErrKindMismatch, col.Name(), col.Kind())
	}
	values := col.Floats()
	n := len(values)
	if n == 0 {
		return nil, fmt.Errorf("%w: column %q has no non-missing values", dataset.ErrNoRows, col.Name())
	}
	if bins <= 0 {
		bins = sturges(n)
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	cfg := &ChartConfig{
		Type:   TypeHistogram,
		Title:  col.Name(),
		XLabel: col.Name(),
		YLabel: "count",
	}

	if lo == hi {
		cfg.Series = append(cfg.Series, Series{
			Name:   "counts",
			Points: []Point{pt(lo, float64(n))},
		})
		return cfg, nil
	}

	width := (hi - lo) / float64(bins)
	counts := make([]int, bins)
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}

	bars := Series{Name: "counts", Points: make([]Point, bins)}
	for i, c := range counts {
		center := lo + (float64(i)+0.5)*width
		bars.Points[i] = pt(center, float64(c))
	}
	cfg.Series = append(cfg.Series, bars)

	if overlay != nil {
		// Expected count in a bin of this width is n*width*pdf(x).
		scale := float64(n) * width
		curve := Series{Name: string(overlay.Name()), Points: make([]Point, 0, curvePoints)}
		step := (hi - lo) / float64(curvePoints-1)
		for i := 0; i < curvePoints; i++ {
			x := lo + float64(i)*step
			curve.Points = append(curve.Points, pt(x, overlay.PDF(x)*scale))
		}
		cfg.Series = append(cfg.Series, curve)
		cfg.ShowLegend = true
	}
	return cfg, nil
}

// FrequencyBar turns a frequency table into a bar chart, one bar per level
// in table order.
func FrequencyBar(table *dataset.FrequencyTable) *ChartConfig {
	bars := Series{
		Name:   "counts",
		Points: make([]Point, len(table.Rows)),
		Labels: make([]string, len(table.Rows)),
	}
	for i, row := range table.Rows {
		bars.Points[i] = pt(float64(i), float64(row.Count))
		bars.Labels[i] = row.Level
	}
	return &ChartConfig{
		Type:   TypeBar,
		Title:  table.Column,
		XLabel: table.Column,
		YLabel: "count",
		Series: []Series{bars},
	}
}

// sturges returns the Sturges bin count ceil(log2 n)+1.
func sturges(n int) int {
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}
