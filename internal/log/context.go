// SPDX-License-Identifier: MIT

// Package log provides structured logging utilities.
package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	runIDKey     ctxKey = "run_id"
	datasetIDKey ctxKey = "dataset_id"
)

func withString(ctx context.Context, key ctxKey, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, id)
}

func stringFrom(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// ContextWithRequestID stores the provided request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

// ContextWithRunID stores the provided profiling run ID in the context.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return withString(ctx, runIDKey, id)
}

// ContextWithDatasetID stores the provided dataset ID in the context.
func ContextWithDatasetID(ctx context.Context, id string) context.Context {
	return withString(ctx, datasetIDKey, id)
}

// RequestIDFromContext extracts the request ID from context if present.
func RequestIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, requestIDKey)
}

// RunIDFromContext extracts the run ID from context if present.
func RunIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, runIDKey)
}

// DatasetIDFromContext extracts the dataset ID from context if present.
func DatasetIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, datasetIDKey)
}

// WithContext enriches the supplied logger with whichever correlation
// fields the context carries. With none present the logger is returned
// untouched.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return logger
	}
	fields := [...]struct{ name, value string }{
		{FieldRequestID, RequestIDFromContext(ctx)},
		{FieldRunID, RunIDFromContext(ctx)},
		{FieldDatasetID, DatasetIDFromContext(ctx)},
	}

	builder := logger.With()
	added := false
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		builder = builder.Str(f.name, f.value)
		added = true
	}
	if !added {
		return logger
	}
	return builder.Logger()
}

// WithComponentFromContext returns a logger that is annotated with the component
// name and enriched with correlation fields from ctx.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	l := FromContext(ctx)
	return WithContext(ctx, l.With().Str(FieldComponent, component).Logger())
}

// FromContext returns the logger stored in ctx, falling back to the
// base logger when none was attached.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		l := Base()
		return &l
	}
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		b := Base()
		return &b
	}
	return l
}
