// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldRunID     = "run_id"
	FieldDatasetID = "dataset_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Data fields
	FieldColumn  = "column"
	FieldKind    = "kind"
	FieldRows    = "rows"
	FieldColumns = "columns"

	// Path fields
	FieldPath       = "path"
	FieldReportPath = "report_path"
)
