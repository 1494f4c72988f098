// SPDX-License-Identifier: MIT

// Package dataset provides the columnar tabular data model used across the
// analysis pipeline: typed columns with missing-value masks, CSV ingestion
// with kind inference, and the row and column operations the profiling and
// query surfaces are built on.
package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// Kind identifies the logical type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindBoolean     Kind = "boolean"
	KindDatetime    Kind = "datetime"
)

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindNumeric, KindCategorical, KindBoolean, KindDatetime:
		return true
	}
	return false
}

// Column is a single typed column. Exactly one backing slice is populated,
// chosen by Kind; missing marks cells without a value. For numeric columns a
// missing cell also carries NaN in the backing slice.
type Column struct {
	name    string
	kind    Kind
	nums    []float64
	strs    []string
	bools   []bool
	times   []time.Time
	missing []bool
}

// NewNumericColumn builds a numeric column. NaN entries are recorded as missing.
func NewNumericColumn(name string, values []float64) *Column {
	missing := make([]bool, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			missing[i] = true
		}
	}
	return &Column{name: name, kind: KindNumeric, nums: values, missing: missing}
}

// NewCategoricalColumn builds a categorical column. Null markers are recorded
// as missing.
func NewCategoricalColumn(name string, values []string) *Column {
	missing := make([]bool, len(values))
	for i, v := range values {
		if IsNull(v) {
			missing[i] = true
		}
	}
	return &Column{name: name, kind: KindCategorical, strs: values, missing: missing}
}

// NewBooleanColumn builds a boolean column with an explicit missing mask.
func NewBooleanColumn(name string, values []bool, missing []bool) *Column {
	if missing == nil {
		missing = make([]bool, len(values))
	}
	return &Column{name: name, kind: KindBoolean, bools: values, missing: missing}
}

// NewDatetimeColumn builds a datetime column with an explicit missing mask.
func NewDatetimeColumn(name string, values []time.Time, missing []bool) *Column {
	if missing == nil {
		missing = make([]bool, len(values))
	}
	return &Column{name: name, kind: KindDatetime, times: values, missing: missing}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the column kind.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of cells including missing ones.
func (c *Column) Len() int { return len(c.missing) }

// IsMissing reports whether the cell at index i has no value.
func (c *Column) IsMissing(i int) bool { return c.missing[i] }

// NonNull returns the number of cells holding a value.
func (c *Column) NonNull() int {
	n := 0
	for _, m := range c.missing {
		if !m {
			n++
		}
	}
	return n
}

// Nulls returns the number of missing cells.
func (c *Column) Nulls() int { return c.Len() - c.NonNull() }

// Float returns the numeric value at index i. NaN for missing or non-numeric
// columns.
func (c *Column) Float(i int) float64 {
	if c.kind != KindNumeric || c.missing[i] {
		return math.NaN()
	}
	return c.nums[i]
}

// Floats returns the non-missing numeric values in row order.
func (c *Column) Floats() []float64 {
	if c.kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, len(c.nums))
	for i, v := range c.nums {
		if !c.missing[i] {
			out = append(out, v)
		}
	}
	return out
}

// Time returns the datetime value at index i and whether it is present.
func (c *Column) Time(i int) (time.Time, bool) {
	if c.kind != KindDatetime || c.missing[i] {
		return time.Time{}, false
	}
	return c.times[i], true
}

// Bool returns the boolean value at index i and whether it is present.
func (c *Column) Bool(i int) (bool, bool) {
	if c.kind != KindBoolean || c.missing[i] {
		return false, false
	}
	return c.bools[i], true
}

// StringAt renders the cell at index i for display and grouping. Missing
// cells render as the empty string.
func (c *Column) StringAt(i int) string {
	if c.missing[i] {
		return ""
	}
	switch c.kind {
	case KindNumeric:
		return strconv.FormatFloat(c.nums[i], 'g', -1, 64)
	case KindCategorical:
		return c.strs[i]
	case KindBoolean:
		if c.bools[i] {
			return "true"
		}
		return "false"
	case KindDatetime:
		t := c.times[i]
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format(time.RFC3339)
	}
	return ""
}

// Cardinality returns the number of distinct non-missing values.
func (c *Column) Cardinality() int {
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		if c.missing[i] {
			continue
		}
		seen[c.StringAt(i)] = struct{}{}
	}
	return len(seen)
}

// SizeBytes approximates the in-memory footprint of the column.
func (c *Column) SizeBytes() int64 {
	var size int64 = int64(len(c.missing)) // missing mask
	switch c.kind {
	case KindNumeric:
		size += int64(len(c.nums)) * 8
	case KindBoolean:
		size += int64(len(c.bools))
	case KindDatetime:
		size += int64(len(c.times)) * 24
	case KindCategorical:
		for _, s := range c.strs {
			size += int64(len(s)) + 16
		}
	}
	return size
}

// slice returns a new column holding the cells at the given indices.
func (c *Column) slice(indices []int) *Column {
	out := &Column{name: c.name, kind: c.kind, missing: make([]bool, len(indices))}
	switch c.kind {
	case KindNumeric:
		out.nums = make([]float64, len(indices))
		for j, i := range indices {
			out.nums[j] = c.nums[i]
			out.missing[j] = c.missing[i]
		}
	case KindCategorical:
		out.strs = make([]string, len(indices))
		for j, i := range indices {
			out.strs[j] = c.strs[i]
			out.missing[j] = c.missing[i]
		}
	case KindBoolean:
		out.bools = make([]bool, len(indices))
		for j, i := range indices {
			out.bools[j] = c.bools[i]
			out.missing[j] = c.missing[i]
		}
	case KindDatetime:
		out.times = make([]time.Time, len(indices))
		for j, i := range indices {
			out.times[j] = c.times[i]
			out.missing[j] = c.missing[i]
		}
	}
	return out
}

// Dataset is an immutable ordered collection of equal-length columns.
type Dataset struct {
	name   string
	cols   []*Column
	byName map[string]int
	rows   int
}

// New builds a dataset from columns. All columns must have equal length and
// unique names.
func New(name string, cols []*Column) (*Dataset, error) {
	ds := &Dataset{name: name, cols: cols, byName: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := ds.byName[c.name]; dup {
			return nil, fmt.Errorf("dataset %q: duplicate column %q", name, c.name)
		}
		ds.byName[c.name] = i
		if i == 0 {
			ds.rows = c.Len()
		} else if c.Len() != ds.rows {
			return nil, fmt.Errorf("dataset %q: column %q has %d rows, want %d", name, c.name, c.Len(), ds.rows)
		}
	}
	return ds, nil
}

// Name returns the dataset name.
func (ds *Dataset) Name() string { return ds.name }

// Len returns the number of rows.
func (ds *Dataset) Len() int { return ds.rows }

// Columns returns the column names in order.
func (ds *Dataset) Columns() []string {
	names := make([]string, len(ds.cols))
	for i, c := range ds.cols {
		names[i] = c.name
	}
	return names
}

// Column returns the named column, or an error naming the miss.
func (ds *Dataset) Column(name string) (*Column, error) {
	i, ok := ds.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return ds.cols[i], nil
}

// Kinds returns a histogram of column kinds.
func (ds *Dataset) Kinds() map[Kind]int {
	out := make(map[Kind]int, 4)
	for _, c := range ds.cols {
		out[c.kind]++
	}
	return out
}

// SizeBytes approximates the in-memory footprint of the dataset.
func (ds *Dataset) SizeBytes() int64 {
	var size int64
	for _, c := range ds.cols {
		size += c.SizeBytes()
	}
	return size
}

// Fingerprint returns a stable hex digest over the dataset identity: name,
// shape and the ordered column names and kinds. Equal structure yields equal
// fingerprints across runs and hosts.
func (ds *Dataset) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d\x00", ds.name, ds.rows, len(ds.cols))
	for _, c := range ds.cols {
		fmt.Fprintf(h, "%s\x00%s\x00", c.name, c.kind)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ID returns the stable dataset identifier derived from the fingerprint.
func (ds *Dataset) ID() string {
	return "ds-" + ds.Fingerprint()[:16]
}

// withRows builds a dataset containing only the given row indices, in order.
func (ds *Dataset) withRows(indices []int) *Dataset {
	cols := make([]*Column, len(ds.cols))
	for i, c := range ds.cols {
		cols[i] = c.slice(indices)
	}
	out, _ := New(ds.name, cols)
	return out
}

// sortedLevels returns the distinct non-missing rendered values of a column
// in lexical order.
func sortedLevels(c *Column) []string {
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		seen[c.StringAt(i)] = struct{}{}
	}
	levels := make([]string, 0, len(seen))
	for lvl := range seen {
		levels = append(levels, lvl)
	}
	sort.Strings(levels)
	return levels
}
