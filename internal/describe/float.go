// SPDX-License-Identifier: MIT

package describe

import (
	"math"
	"strconv"
)

// Float is a float64 that marshals NaN and infinities as JSON null.
// Degenerate summaries (empty or constant samples) carry NaN moments and must
// still serialize cleanly.
type Float float64

// MarshalJSON renders finite values as numbers and everything else as null.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// UnmarshalJSON accepts numbers and null, mapping null to NaN.
func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}
