// SPDX-License-Identifier: MIT

package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	d8log "github.com/john-james-ai/d8analysis/internal/log"
)

func TestEmitProfileObsNoopProviders(t *testing.T) {
	// Without a configured SDK the global providers are no-ops; emission
	// must still be safe to call.
	ctx, span := StartProfileSpan(context.Background())
	EmitProfileObs(ctx, "ds-1", 100, 5, "success")
	EmitProfileObs(ctx, "ds-1", 100, 5, "failure")
	span.End()
}

func TestAttributeWhitelistCoversEmittedKeys(t *testing.T) {
	for _, key := range []string{AttrDatasetID, AttrRows, AttrColumns, AttrOutcome, AttrRunID} {
		if !allowedAttributes[key] {
			t.Fatalf("attribute %q missing from whitelist", key)
		}
	}
}

// TestEmitProfileObsContract pins the span attributes and the run counter
// against in-memory SDK providers, so attribute renames cannot slip through.
func TestEmitProfileObsContract(t *testing.T) {
	spanExporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spanExporter))

	metricReader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader))

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	defer func() {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(noop.NewMeterProvider())
	}()

	ctx := d8log.ContextWithRunID(context.Background(), "run-42")
	ctx, span := StartProfileSpan(ctx)
	EmitProfileObs(ctx, "ds-42", 120, 6, "success")
	span.End()

	spans := spanExporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "d8a.profile", spans[0].Name)

	got := map[string]attribute.Value{}
	for _, kv := range spans[0].Attributes {
		got[string(kv.Key)] = kv.Value
	}
	assert.Equal(t, "ds-42", got[AttrDatasetID].AsString())
	assert.Equal(t, int64(120), got[AttrRows].AsInt64())
	assert.Equal(t, int64(6), got[AttrColumns].AsInt64())
	assert.Equal(t, "success", got[AttrOutcome].AsString())
	assert.Equal(t, "run-42", got[AttrRunID].AsString())

	var rm metricdata.ResourceMetrics
	require.NoError(t, metricReader.Collect(context.Background(), &rm))

	var counter *metricdata.Sum[int64]
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != "d8a.profile" {
			continue
		}
		for _, m := range scope.Metrics {
			if m.Name != "d8a_profile_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "d8a_profile_total must be an int64 sum")
			counter = &sum
		}
	}
	require.NotNil(t, counter, "d8a_profile_total not collected")
	require.Len(t, counter.DataPoints, 1)
	dp := counter.DataPoints[0]
	assert.Equal(t, int64(1), dp.Value)
	outcome, ok := dp.Attributes.Value(attribute.Key("outcome"))
	require.True(t, ok, "outcome attribute missing")
	assert.Equal(t, "success", outcome.AsString())
}
