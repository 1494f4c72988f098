// SPDX-License-Identifier: MIT

package profile

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	d8log "github.com/john-james-ai/d8analysis/internal/log"
)

// Observability keys (frozen).
const (
	AttrDatasetID = "d8a.profile.dataset_id"
	AttrRows      = "d8a.profile.rows"
	AttrColumns   = "d8a.profile.columns"
	AttrOutcome   = "d8a.profile.outcome"
	AttrRunID     = "d8a.runId"
)

// Frozen whitelist for enforcement.
var allowedAttributes = map[string]bool{
	AttrDatasetID: true,
	AttrRows:      true,
	AttrColumns:   true,
	AttrOutcome:   true,
	AttrRunID:     true,
}

// EmitProfileObs records the run counter and sets the span attributes for a
// profiling run. Attributes outside the frozen whitelist are rejected.
func EmitProfileObs(ctx context.Context, datasetID string, rows, cols int, outcome string) {
	span := trace.SpanFromContext(ctx)

	// Runtime provider lookup, no init-time rebinding.
	meter := otel.GetMeterProvider().Meter("d8a.profile")

	runTotal, _ := meter.Int64Counter("d8a_profile_total", metric.WithDescription("Total profiling runs"))
	runTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))

	attrs := []attribute.KeyValue{
		attribute.String(AttrDatasetID, datasetID),
		attribute.Int(AttrRows, rows),
		attribute.Int(AttrColumns, cols),
		attribute.String(AttrOutcome, outcome),
		attribute.String(AttrRunID, d8log.RunIDFromContext(ctx)),
	}

	for _, kv := range attrs {
		if !allowedAttributes[string(kv.Key)] {
			d8log.Base().Error().Str("key", string(kv.Key)).Msg("observability attribute not in whitelist")
			return
		}
	}

	span.SetAttributes(attrs...)
}

// StartProfileSpan wraps span creation for a profiling run.
func StartProfileSpan(ctx context.Context) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer("d8a.profile")
	return tracer.Start(ctx, "d8a.profile")
}
