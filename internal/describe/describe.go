// SPDX-License-Identifier: MIT

// Package describe computes descriptive statistics over dataset columns:
// moment and quantile summaries for numeric columns, mode summaries for
// categorical and boolean columns, optionally partitioned by a grouping
// column.
package describe

import (
	"errors"
	"fmt"
	"sort"

	"github.com/john-james-ai/d8analysis/internal/dataset"
)

// ErrGroupKind indicates the grouping column cannot partition summaries.
var ErrGroupKind = errors.New("describe: group column must be categorical or boolean")

// Options selects the columns to describe and an optional grouping column.
type Options struct {
	// Columns restricts the description to the named columns. Empty describes
	// every column. The grouping column is always excluded from its own
	// summaries.
	Columns []string
	// Kinds restricts the description to columns of the given kinds when
	// Columns is empty.
	Kinds []dataset.Kind
	// GroupBy partitions summaries by the levels of a categorical or boolean
	// column.
	GroupBy string
}

// Result carries the computed summaries in column order.
type Result struct {
	Numeric     []NumericSummary     `json:"numeric"`
	Categorical []CategoricalSummary `json:"categorical"`
}

// Describe summarises the selected columns of a dataset. Numeric columns get
// moment and quantile summaries; categorical and boolean columns get mode
// summaries. Datetime columns are skipped.
func Describe(ds *dataset.Dataset, opts Options) (*Result, error) {
	selected, err := selectColumns(ds, opts)
	if err != nil {
		return nil, err
	}

	if opts.GroupBy == "" {
		res := &Result{}
		for _, col := range selected {
			summarise(res, col, nil, "")
		}
		return res, nil
	}

	groupCol, err := ds.Column(opts.GroupBy)
	if err != nil {
		return nil, err
	}
	if groupCol.Kind() != dataset.KindCategorical && groupCol.Kind() != dataset.KindBoolean {
		return nil, fmt.Errorf("%w, got %s for %q", ErrGroupKind, groupCol.Kind(), opts.GroupBy)
	}

	res := &Result{}
	for _, level := range groupLevels(groupCol) {
		mask := make([]bool, groupCol.Len())
		for i := 0; i < groupCol.Len(); i++ {
			mask[i] = !groupCol.IsMissing(i) && groupCol.StringAt(i) == level
		}
		for _, col := range selected {
			if col.Name() == opts.GroupBy {
				continue
			}
			summarise(res, col, mask, level)
		}
	}
	return res, nil
}

// selectColumns resolves the described column set. Explicit names win over
// kind filters; unknown explicit names are an error.
func selectColumns(ds *dataset.Dataset, opts Options) ([]*dataset.Column, error) {
	if len(opts.Columns) > 0 {
		cols := make([]*dataset.Column, 0, len(opts.Columns))
		for _, name := range opts.Columns {
			col, err := ds.Column(name)
			if err != nil {
				return nil, err
			}
			cols = append(cols, col)
		}
		return cols, nil
	}

	var kindFilter map[dataset.Kind]struct{}
	if len(opts.Kinds) > 0 {
		kindFilter = make(map[dataset.Kind]struct{}, len(opts.Kinds))
		for _, k := range opts.Kinds {
			kindFilter[k] = struct{}{}
		}
	}

	var cols []*dataset.Column
	for _, name := range ds.Columns() {
		col, err := ds.Column(name)
		if err != nil {
			return nil, err
		}
		if kindFilter != nil {
			if _, ok := kindFilter[col.Kind()]; !ok {
				continue
			}
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// summarise appends the summary of one column, optionally masked to a group.
func summarise(res *Result, col *dataset.Column, mask []bool, group string) {
	switch col.Kind() {
	case dataset.KindNumeric:
		values, missing := maskedFloats(col, mask)
		s := NumericValues(col.Name(), values, missing)
		s.Group = group
		res.Numeric = append(res.Numeric, s)
	case dataset.KindCategorical, dataset.KindBoolean:
		values, missing := maskedStrings(col, mask)
		s := CategoricalValues(col.Name(), values, missing)
		s.Group = group
		res.Categorical = append(res.Categorical, s)
	}
	// Datetime columns carry no summary.
}

func maskedFloats(col *dataset.Column, mask []bool) (values []float64, missing int) {
	for i := 0; i < col.Len(); i++ {
		if mask != nil && !mask[i] {
			continue
		}
		if col.IsMissing(i) {
			missing++
			continue
		}
		values = append(values, col.Float(i))
	}
	return values, missing
}

func maskedStrings(col *dataset.Column, mask []bool) (values []string, missing int) {
	for i := 0; i < col.Len(); i++ {
		if mask != nil && !mask[i] {
			continue
		}
		if col.IsMissing(i) {
			missing++
			continue
		}
		values = append(values, col.StringAt(i))
	}
	return values, missing
}

// groupLevels returns the distinct non-missing levels of the group column in
// lexical order.
func groupLevels(col *dataset.Column) []string {
	seen := make(map[string]struct{})
	var levels []string
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			continue
		}
		lvl := col.StringAt(i)
		if _, dup := seen[lvl]; !dup {
			seen[lvl] = struct{}{}
			levels = append(levels, lvl)
		}
	}
	sort.Strings(levels)
	return levels
}
