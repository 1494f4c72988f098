// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the service.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"
	HTTPUserAgentKey  = "http.user_agent"

	// Dataset attributes
	DatasetIDKey      = "dataset.id"
	DatasetSourceKey  = "dataset.source"
	DatasetRowsKey    = "dataset.rows"
	DatasetColumnsKey = "dataset.columns"

	// Profile run attributes
	ProfileRunIDKey    = "profile.run_id"
	ProfileStatusKey   = "profile.status"
	ProfileDurationKey = "profile.duration_ms"

	// Analysis attributes
	AnalysisOpKey     = "analysis.op"
	AnalysisColumnKey = "analysis.column"
	AnalysisBinsKey   = "analysis.bins"

	// Cache attributes
	CacheHitKey = "cache.hit"
	CacheKeyKey = "cache.key"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// DatasetAttributes creates dataset span attributes. Shape counts below
// zero are omitted, for spans recorded before the dataset is loaded.
func DatasetAttributes(id, source string, rows, columns int) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if id != "" {
		attrs = append(attrs, attribute.String(DatasetIDKey, id))
	}
	if source != "" {
		attrs = append(attrs, attribute.String(DatasetSourceKey, source))
	}
	if rows >= 0 {
		attrs = append(attrs, attribute.Int(DatasetRowsKey, rows))
	}
	if columns >= 0 {
		attrs = append(attrs, attribute.Int(DatasetColumnsKey, columns))
	}
	return attrs
}

// ProfileRunAttributes creates profile run span attributes.
func ProfileRunAttributes(runID, status string, durationMS int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ProfileRunIDKey, runID),
		attribute.String(ProfileStatusKey, status),
		attribute.Int64(ProfileDurationKey, durationMS),
	}
}

// AnalysisAttributes creates span attributes for a single analysis
// operation against one column.
func AnalysisAttributes(op, column string, bins int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AnalysisOpKey, op),
	}
	if column != "" {
		attrs = append(attrs, attribute.String(AnalysisColumnKey, column))
	}
	if bins > 0 {
		attrs = append(attrs, attribute.Int(AnalysisBinsKey, bins))
	}
	return attrs
}

// CacheAttributes creates cache lookup span attributes.
func CacheAttributes(key string, hit bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(CacheKeyKey, key),
		attribute.Bool(CacheHitKey, hit),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
