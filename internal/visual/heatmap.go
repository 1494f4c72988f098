// SPDX-License-Identifier: MIT

package visual

import (
	"fmt"

	"github.com/john-james-ai/d8analysis/internal/describe"
)

// CorrelationHeatmap packages a labelled correlation matrix. The matrix must
// be square and match the label count; undefined cells may carry NaN and
// serialize as null.
func CorrelationHeatmap(labels []string, matrix [][]float64) (*ChartConfig, error) {
	n := len(labels)
	if n == 0 {
		return nil, fmt.Errorf("visual: heatmap needs at least one column")
	}
	if len(matrix) != n {
		return nil, fmt.Errorf("visual: heatmap matrix has %d rows for %d labels", len(matrix), n)
	}

	values := make([][]describe.Float, n)
	for i, row := range matrix {
		if len(row) != n {
			return nil, fmt.Errorf("visual: heatmap matrix row %d has %d cells, want %d", i, len(row), n)
		}
		values[i] = make([]describe.Float, n)
		for j, v := range row {
			values[i][j] = describe.Float(v)
		}
	}

	return &ChartConfig{
		Type:  TypeHeatmap,
		Title: "correlation",
		Matrix: &HeatmapData{
			Labels: append([]string(nil), labels...),
			Values: values,
		},
	}, nil
}
