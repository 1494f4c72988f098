// SPDX-License-Identifier: MIT
package telemetry

import (
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestHTTPAttributes(t *testing.T) {
	attrs := HTTPAttributes("GET", "/api/v1/datasets/{id}", "http://localhost:8080/api/v1/datasets/sales", 200)

	if len(attrs) != 4 {
		t.Fatalf("Expected 4 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, HTTPMethodKey, "GET")
	verifyAttribute(t, attrs, HTTPRouteKey, "/api/v1/datasets/{id}")
	verifyAttribute(t, attrs, HTTPURLKey, "http://localhost:8080/api/v1/datasets/sales")
	verifyIntAttribute(t, attrs, HTTPStatusCodeKey, 200)
}

func TestDatasetAttributes(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		source  string
		rows    int
		columns int
		wantLen int
	}{
		{
			name:    "all fields",
			id:      "sales-2023",
			source:  "upload",
			rows:    1200,
			columns: 14,
			wantLen: 4,
		},
		{
			name:    "shape unknown",
			id:      "sales-2023",
			source:  "remote",
			rows:    -1,
			columns: -1,
			wantLen: 2,
		},
		{
			name:    "empty",
			id:      "",
			source:  "",
			rows:    -1,
			columns: -1,
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := DatasetAttributes(tt.id, tt.source, tt.rows, tt.columns)

			if len(attrs) != tt.wantLen {
				t.Errorf("Expected %d attributes, got %d", tt.wantLen, len(attrs))
			}

			if tt.id != "" {
				verifyAttribute(t, attrs, DatasetIDKey, tt.id)
			}
			if tt.source != "" {
				verifyAttribute(t, attrs, DatasetSourceKey, tt.source)
			}
			if tt.rows >= 0 {
				verifyIntAttribute(t, attrs, DatasetRowsKey, tt.rows)
			}
			if tt.columns >= 0 {
				verifyIntAttribute(t, attrs, DatasetColumnsKey, tt.columns)
			}
		})
	}
}

func TestProfileRunAttributes(t *testing.T) {
	attrs := ProfileRunAttributes("run-7f3a", "success", 45000)

	if len(attrs) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, ProfileRunIDKey, "run-7f3a")
	verifyAttribute(t, attrs, ProfileStatusKey, "success")
	verifyInt64Attribute(t, attrs, ProfileDurationKey, 45000)
}

func TestAnalysisAttributes(t *testing.T) {
	attrs := AnalysisAttributes("histogram", "price", 20)

	if len(attrs) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, AnalysisOpKey, "histogram")
	verifyAttribute(t, attrs, AnalysisColumnKey, "price")
	verifyIntAttribute(t, attrs, AnalysisBinsKey, 20)

	// Dataset-level ops carry no column or bin count.
	attrs = AnalysisAttributes("describe", "", 0)
	if len(attrs) != 1 {
		t.Fatalf("Expected 1 attribute, got %d", len(attrs))
	}
	verifyAttribute(t, attrs, AnalysisOpKey, "describe")
}

func TestCacheAttributes(t *testing.T) {
	attrs := CacheAttributes("histogram:sales:price:20", true)

	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, CacheKeyKey, "histogram:sales:price:20")
	verifyBoolAttribute(t, attrs, CacheHitKey, true)
}

func TestErrorAttributes(t *testing.T) {
	err := errors.New("test error")
	attrs := ErrorAttributes(err, "parse_error")

	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}

	verifyBoolAttribute(t, attrs, ErrorKey, true)
	verifyAttribute(t, attrs, ErrorTypeKey, "parse_error")
}

func TestAttributeKeys_Consistency(t *testing.T) {
	// Verify attribute keys follow OpenTelemetry conventions
	keys := []string{
		HTTPMethodKey,
		HTTPStatusCodeKey,
		HTTPRouteKey,
		DatasetIDKey,
		ProfileRunIDKey,
		AnalysisOpKey,
		CacheHitKey,
		ErrorKey,
	}

	for _, key := range keys {
		if key == "" {
			t.Errorf("Expected non-empty attribute key")
		}
	}
}

// Helper functions for attribute verification

func verifyAttribute(t *testing.T, attrs []attribute.KeyValue, key, expectedValue string) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsString() != expectedValue {
				t.Errorf("Expected %s=%s, got %s", key, expectedValue, attr.Value.AsString())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyIntAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue int) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsInt64() != int64(expectedValue) {
				t.Errorf("Expected %s=%d, got %d", key, expectedValue, attr.Value.AsInt64())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyInt64Attribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue int64) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsInt64() != expectedValue {
				t.Errorf("Expected %s=%d, got %d", key, expectedValue, attr.Value.AsInt64())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyBoolAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue bool) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsBool() != expectedValue {
				t.Errorf("Expected %s=%t, got %t", key, expectedValue, attr.Value.AsBool())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}
