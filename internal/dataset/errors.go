// SPDX-License-Identifier: MIT

package dataset

import "errors"

var (
	// ErrEmptyInput indicates the source contained no header row.
	ErrEmptyInput = errors.New("dataset: input is empty")
	// ErrNoRows indicates the source contained a header but no data rows.
	ErrNoRows = errors.New("dataset: no data rows")
	// ErrUnknownColumn indicates an operation referenced a column that does not exist.
	ErrUnknownColumn = errors.New("dataset: unknown column")
	// ErrKindMismatch indicates an operation requires a different column kind.
	ErrKindMismatch = errors.New("dataset: column kind mismatch")
)
