// Package tracing holds the OpenTelemetry setup and span helpers for the
// analysis pipeline. Tracing is off unless OTLP_ENDPOINT is set; every
// caller goes through the package tracer, which defaults to a no-op.
package tracing

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// ServiceName identifies this tool in exported traces.
	ServiceName = "brunnels"
	// TracerName is the instrumentation scope name.
	TracerName = "github.com/trailscan/brunnels"
)

// Tracer is the package tracer. It stays a no-op until InitTracing finds an
// OTLP endpoint.
var Tracer trace.Tracer = noop.NewTracerProvider().Tracer(TracerName)

// InitTracing wires up OTLP-over-gRPC tracing when OTLP_ENDPOINT is set and
// returns the provider shutdown. Without the endpoint it leaves the no-op
// tracer in place; a run without a collector carries no tracing cost.
func InitTracing(ctx context.Context, version string) (func(context.Context) error, error) {
	endpoint := os.Getenv("OTLP_ENDPOINT")
	if endpoint == "" {
		Tracer = noop.NewTracerProvider().Tracer(TracerName)
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	))
	if err != nil {
		return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	// A run is one bounded batch job; sample everything.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	Tracer = tp.Tracer(TracerName)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// StartSpan starts a span on the package tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer.Start(ctx, name, opts...)
}

// recordingSpan returns the span from ctx when it is actually recording.
func recordingSpan(ctx context.Context) (trace.Span, bool) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return nil, false
	}
	return span, true
}

// RecordError records err on the span in ctx.
func RecordError(ctx context.Context, err error, opts ...trace.EventOption) {
	if span, ok := recordingSpan(ctx); ok {
		span.RecordError(err, opts...)
	}
}

// SetStatus sets the status of the span in ctx.
func SetStatus(ctx context.Context, code codes.Code, description string) {
	if span, ok := recordingSpan(ctx); ok {
		span.SetStatus(code, description)
	}
}

// AddEvent adds an event to the span in ctx.
func AddEvent(ctx context.Context, name string, opts ...trace.EventOption) {
	if span, ok := recordingSpan(ctx); ok {
		span.AddEvent(name, opts...)
	}
}

// SetAttributes sets attributes on the span in ctx.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	if span, ok := recordingSpan(ctx); ok {
		span.SetAttributes(attrs...)
	}
}
