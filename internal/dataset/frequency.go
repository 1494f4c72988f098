// SPDX-License-Identifier: MIT

package dataset

import (
	"fmt"
	"math"
	"sort"
)

// FrequencyOptions controls how a frequency table is built.
type FrequencyOptions struct {
	// Bins sets the number of equal-width bins for numeric columns.
	// Zero means 4 bins. Ignored for non-numeric columns.
	Bins int
	// SortByCount orders levels by descending count instead of level order.
	SortByCount bool
	// TopK truncates the table to the K most frequent levels, folding the
	// remainder into the table's Remainder fields. Zero keeps all levels.
	TopK int
}

// FrequencyRow is one level of a frequency distribution.
type FrequencyRow struct {
	Level      string  `json:"level"`
	Count      int     `json:"count"`
	Proportion float64 `json:"proportion"`
	Cumulative float64 `json:"cumulative"`
}

// FrequencyTable is the frequency distribution of one column. Total covers
// all counted values; Remainder holds levels folded away by TopK.
type FrequencyTable struct {
	Column          string         `json:"column"`
	Rows            []FrequencyRow `json:"rows"`
	Total           int            `json:"total"`
	Missing         int            `json:"missing"`
	RemainderLevels int            `json:"remainder_levels,omitempty"`
	RemainderCount  int            `json:"remainder_count,omitempty"`
}

// Frequency computes the frequency distribution of the named column with
// counts, proportions and cumulative proportions. Numeric columns are binned
// into equal-width intervals.
func (ds *Dataset) Frequency(column string, opts FrequencyOptions) (*FrequencyTable, error) {
	c, err := ds.Column(column)
	if err != nil {
		return nil, err
	}

	var levels []string
	counts := make(map[string]int)

	if c.kind == KindNumeric {
		levels, counts = binNumeric(c, opts.Bins)
	} else {
		levels = sortedLevels(c)
		for i := 0; i < c.Len(); i++ {
			if !c.missing[i] {
				counts[c.StringAt(i)]++
			}
		}
	}

	if opts.SortByCount {
		sort.SliceStable(levels, func(a, b int) bool {
			return counts[levels[a]] > counts[levels[b]]
		})
	}

	table := &FrequencyTable{Column: column, Missing: c.Nulls()}
	for _, lvl := range levels {
		table.Total += counts[lvl]
	}

	kept := levels
	if opts.TopK > 0 && opts.TopK < len(levels) {
		kept = levels[:opts.TopK]
		for _, lvl := range levels[opts.TopK:] {
			table.RemainderLevels++
			table.RemainderCount += counts[lvl]
		}
	}

	cumulative := 0.0
	for _, lvl := range kept {
		count := counts[lvl]
		row := FrequencyRow{Level: lvl, Count: count}
		if table.Total > 0 {
			row.Proportion = float64(count) / float64(table.Total)
		}
		cumulative += row.Proportion
		row.Cumulative = cumulative
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// binNumeric buckets the non-missing values of a numeric column into
// equal-width intervals and returns interval labels in ascending order.
func binNumeric(c *Column, bins int) ([]string, map[string]int) {
	if bins <= 0 {
		bins = 4
	}
	values := c.Floats()
	counts := make(map[string]int)
	if len(values) == 0 {
		return nil, counts
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
	if lo == hi {
		label := fmt.Sprintf("[%.4g, %.4g]", lo, hi)
		counts[label] = len(values)
		return []string{label}, counts
	}

	width := (hi - lo) / float64(bins)
	labels := make([]string, bins)
	for b := 0; b < bins; b++ {
		bLo := lo + float64(b)*width
		bHi := bLo + width
		if b == bins-1 {
			labels[b] = fmt.Sprintf("[%.4g, %.4g]", bLo, hi)
		} else {
			labels[b] = fmt.Sprintf("[%.4g, %.4g)", bLo, bHi)
		}
	}
	for _, v := range values {
		b := int(math.Floor((v - lo) / width))
		if b >= bins {
			b = bins - 1
		}
		if b < 0 {
			b = 0
		}
		counts[labels[b]]++
	}
	return labels, counts
}
