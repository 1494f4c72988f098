// SPDX-License-Identifier: MIT

// Package visual builds render-ready chart payloads from datasets, summaries
// and test results. The package draws nothing; it emits JSON-taggable
// structures a frontend or notebook can hand to any plotting library.
package visual

import (
	"errors"

	"github.com/john-james-ai/d8analysis/internal/describe"
)

// ChartType tags the payload with the intended mark.
type ChartType string

const (
	TypeHistogram ChartType = "histogram"
	TypeBar       ChartType = "bar"
	TypeBox       ChartType = "box"
	TypeLine      ChartType = "line"
	TypeHeatmap   ChartType = "heatmap"
)

// ErrUnsupportedTest indicates a test result with no curve rendering.
var ErrUnsupportedTest = errors.New("visual: no curve rendering for this test")

// Point is one datum of a series. Values are JSON-null-safe floats so a
// degenerate point never poisons the whole payload.
type Point struct {
	X describe.Float `json:"x"`
	Y describe.Float `json:"y"`
}

// Series is a named sequence of points. Labels, when present, carry the
// categorical axis for bar-style series in point order.
type Series struct {
	Name   string   `json:"name"`
	Points []Point  `json:"points"`
	Labels []string `json:"labels,omitempty"`
}

// BoxStats carries the box-and-whisker geometry. Whiskers extend to the
// farthest observation within 1.5 IQR of the box; everything beyond is an
// outlier.
type BoxStats struct {
	Min         float64   `json:"min"`
	Q1          float64   `json:"q1"`
	Median      float64   `json:"median"`
	Q3          float64   `json:"q3"`
	Max         float64   `json:"max"`
	WhiskerLow  float64   `json:"whisker_low"`
	WhiskerHigh float64   `json:"whisker_high"`
	Outliers    []float64 `json:"outliers"`
}

// HeatmapData carries a labelled square matrix in row-major order.
type HeatmapData struct {
	Labels []string           `json:"labels"`
	Values [][]describe.Float `json:"values"`
}

// ChartConfig is the render-ready description of one chart.
type ChartConfig struct {
	Type       ChartType    `json:"type"`
	Title      string       `json:"title"`
	Subtitle   string       `json:"subtitle,omitempty"`
	XLabel     string       `json:"x_label,omitempty"`
	YLabel     string       `json:"y_label,omitempty"`
	Series     []Series     `json:"series,omitempty"`
	Box        *BoxStats    `json:"box,omitempty"`
	Matrix     *HeatmapData `json:"matrix,omitempty"`
	ShowLegend bool         `json:"show_legend,omitempty"`
}

func pt(x, y float64) Point {
	return Point{X: describe.Float(x), Y: describe.Float(y)}
}
