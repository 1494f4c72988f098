// SPDX-License-Identifier: MIT

package dataset

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// OverviewStats summarises the dataset shape.
type OverviewStats struct {
	Rows         int     `json:"rows"`
	Columns      int     `json:"columns"`
	Cells        int     `json:"cells"`
	MissingCells int     `json:"missing_cells"`
	MissingRatio float64 `json:"missing_ratio"`
	SizeBytes    int64   `json:"size_bytes"`
}

// Overview computes shape and missingness statistics for the dataset.
func (ds *Dataset) Overview() OverviewStats {
	o := OverviewStats{
		Rows:      ds.rows,
		Columns:   len(ds.cols),
		Cells:     ds.rows * len(ds.cols),
		SizeBytes: ds.SizeBytes(),
	}
	for _, c := range ds.cols {
		o.MissingCells += c.Nulls()
	}
	if o.Cells > 0 {
		o.MissingRatio = float64(o.MissingCells) / float64(o.Cells)
	}
	return o
}

// ColumnInfo describes a single column's type and completeness.
type ColumnInfo struct {
	Name        string  `json:"name"`
	Kind        Kind    `json:"kind"`
	NonNull     int     `json:"non_null"`
	Nulls       int     `json:"nulls"`
	Valid       float64 `json:"valid"`
	Cardinality int     `json:"cardinality"`
	Unique      float64 `json:"unique"`
	SizeBytes   int64   `json:"size_bytes"`
}

// Info returns per-column type and completeness statistics in column order.
func (ds *Dataset) Info() []ColumnInfo {
	infos := make([]ColumnInfo, len(ds.cols))
	for i, c := range ds.cols {
		nonNull := c.NonNull()
		info := ColumnInfo{
			Name:        c.name,
			Kind:        c.kind,
			NonNull:     nonNull,
			Nulls:       c.Len() - nonNull,
			Cardinality: c.Cardinality(),
			SizeBytes:   c.SizeBytes(),
		}
		if c.Len() > 0 {
			info.Valid = float64(nonNull) / float64(c.Len())
		}
		if nonNull > 0 {
			info.Unique = float64(info.Cardinality) / float64(nonNull)
		}
		infos[i] = info
	}
	return infos
}

// Head returns the first n rows. n is clamped to the row count.
func (ds *Dataset) Head(n int) *Dataset {
	if n < 0 {
		n = 0
	}
	if n > ds.rows {
		n = ds.rows
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return ds.withRows(indices)
}

// Sample returns n rows drawn without replacement. The seed makes the draw
// reproducible; n is clamped to the row count.
func (ds *Dataset) Sample(n int, seed int64) *Dataset {
	if n < 0 {
		n = 0
	}
	if n > ds.rows {
		n = ds.rows
	}
	rng := rand.New(rand.NewSource(seed))
	indices := rng.Perm(ds.rows)[:n]
	sort.Ints(indices)
	return ds.withRows(indices)
}

// Select returns a dataset containing only the named columns, in the given
// order. Unknown names are ignored.
func (ds *Dataset) Select(names ...string) *Dataset {
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		if i, ok := ds.byName[name]; ok {
			cols = append(cols, ds.cols[i])
		}
	}
	out, _ := New(ds.name, cols)
	return out
}

// Drop returns a dataset without the named columns. Unknown names are ignored.
func (ds *Dataset) Drop(names ...string) *Dataset {
	exclude := make(map[string]struct{}, len(names))
	for _, n := range names {
		exclude[n] = struct{}{}
	}
	cols := make([]*Column, 0, len(ds.cols))
	for _, c := range ds.cols {
		if _, skip := exclude[c.name]; !skip {
			cols = append(cols, c)
		}
	}
	out, _ := New(ds.name, cols)
	return out
}

// SelectKinds returns a dataset containing only columns of the given kinds.
func (ds *Dataset) SelectKinds(kinds ...Kind) *Dataset {
	want := make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		want[k] = struct{}{}
	}
	cols := make([]*Column, 0, len(ds.cols))
	for _, c := range ds.cols {
		if _, ok := want[c.kind]; ok {
			cols = append(cols, c)
		}
	}
	out, _ := New(ds.name, cols)
	return out
}

// Row is a view over one dataset row used by Subset predicates.
type Row struct {
	ds  *Dataset
	idx int
}

// Index returns the row position in the dataset.
func (r Row) Index() int { return r.idx }

// Float returns the numeric cell of the named column and whether a value is
// present.
func (r Row) Float(column string) (float64, bool) {
	c, err := r.ds.Column(column)
	if err != nil || c.kind != KindNumeric || c.missing[r.idx] {
		return 0, false
	}
	return c.nums[r.idx], true
}

// String returns the rendered cell of the named column and whether a value
// is present.
func (r Row) String(column string) (string, bool) {
	c, err := r.ds.Column(column)
	if err != nil || c.missing[r.idx] {
		return "", false
	}
	return c.StringAt(r.idx), true
}

// Bool returns the boolean cell of the named column and whether a value is
// present.
func (r Row) Bool(column string) (bool, bool) {
	c, err := r.ds.Column(column)
	if err != nil || c.kind != KindBoolean || c.missing[r.idx] {
		return false, false
	}
	return c.bools[r.idx], true
}

// Subset returns the rows for which keep returns true, preserving order.
func (ds *Dataset) Subset(keep func(Row) bool) *Dataset {
	var indices []int
	for i := 0; i < ds.rows; i++ {
		if keep(Row{ds: ds, idx: i}) {
			indices = append(indices, i)
		}
	}
	return ds.withRows(indices)
}

// TopN returns the n rows with the largest values in the named numeric
// column. Missing cells are excluded; ties keep their original order.
func (ds *Dataset) TopN(column string, n int) (*Dataset, error) {
	c, err := ds.Column(column)
	if err != nil {
		return nil, err
	}
	if c.kind != KindNumeric {
		return nil, fmt.Errorf("%w: %q is %s, want numeric", ErrKindMismatch, column, c.kind)
	}
	var indices []int
	for i := 0; i < c.Len(); i++ {
		if !c.missing[i] {
			indices = append(indices, i)
		}
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return c.nums[indices[a]] > c.nums[indices[b]]
	})
	if n < 0 {
		n = 0
	}
	if n > len(indices) {
		n = len(indices)
	}
	return ds.withRows(indices[:n]), nil
}

// Unique returns the rows holding the first occurrence of each distinct
// value tuple over the named columns. With no columns the whole row is the
// tuple.
func (ds *Dataset) Unique(columns ...string) (*Dataset, error) {
	cols := make([]*Column, 0, len(columns))
	if len(columns) == 0 {
		cols = ds.cols
	} else {
		for _, name := range columns {
			c, err := ds.Column(name)
			if err != nil {
				return nil, err
			}
			cols = append(cols, c)
		}
	}

	seen := make(map[string]struct{})
	var indices []int
	var key strings.Builder
	for i := 0; i < ds.rows; i++ {
		key.Reset()
		for _, c := range cols {
			if c.missing[i] {
				key.WriteString("\x00\x01")
			} else {
				key.WriteString(c.StringAt(i))
			}
			key.WriteByte('\x00')
		}
		k := key.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		indices = append(indices, i)
	}
	return ds.withRows(indices), nil
}
