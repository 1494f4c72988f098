// SPDX-License-Identifier: MIT

package describe

import (
	"math"
	"sort"
)

// CategoricalSummary holds the descriptive statistics of a categorical or
// boolean sample.
type CategoricalSummary struct {
	Column    string `json:"column"`
	Group     string `json:"group,omitempty"`
	Count     int    `json:"count"`
	Missing   int    `json:"missing"`
	Unique    int    `json:"unique"`
	Mode      string `json:"mode"`
	ModeFreq  int    `json:"mode_freq"`
	ModeRatio Float  `json:"mode_ratio"`
}

// CategoricalValues summarises a categorical sample of rendered levels.
// Ties on the mode resolve to the lexically smallest level.
func CategoricalValues(column string, values []string, missing int) CategoricalSummary {
	s := CategoricalSummary{Column: column, Count: len(values), Missing: missing}

	if len(values) == 0 {
		s.ModeRatio = Float(math.NaN())
		return s
	}

	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	s.Unique = len(counts)

	levels := make([]string, 0, len(counts))
	for lvl := range counts {
		levels = append(levels, lvl)
	}
	sort.Strings(levels)

	for _, lvl := range levels {
		if counts[lvl] > s.ModeFreq {
			s.Mode = lvl
			s.ModeFreq = counts[lvl]
		}
	}
	s.ModeRatio = Float(float64(s.ModeFreq) / float64(len(values)))
	return s
}
