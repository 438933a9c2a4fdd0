package control

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/banksean/capsule/internal/naming"
)

// RunID correlates every span and log line this process emits with one
// launch: computed once per process so InitTracing's resource and every
// slog call site that wants it agree on the same value.
var RunID = naming.RunID()

// tracerName identifies spans emitted by the control plane in any
// downstream collector.
const tracerName = "github.com/banksean/capsule/internal/control"

// InitTracing wires a TracerProvider from CAPSULE_OTLP_ENDPOINT, if set.
// With no endpoint configured it installs a no-op provider so every
// Tracer() call and span created below is free. The returned shutdown
// func flushes and closes the exporter; it is always safe to call, even
// for the no-op case.
func InitTracing(ctx context.Context) (shutdown func(context.Context) error, err error) {
	endpoint := os.Getenv("CAPSULE_OTLP_ENDPOINT")
	if endpoint == "" {
		// otel.GetTracerProvider defaults to a no-op provider until
		// SetTracerProvider is called, so leaving it untouched here is
		// enough: every startSpan call below becomes free.
		return func(context.Context) error { return nil }, nil
	}

	exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName("capsule"),
		semconv.ServiceInstanceID(RunID),
	))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	slog.DebugContext(ctx, "control: exporting traces", slog.String("endpoint", endpoint))

	return func(shutdownCtx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(shutdownCtx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(shutdownCtx)
	}, nil
}

// tracer returns the process-wide control-plane tracer. Safe to call
// before InitTracing: otel.GetTracerProvider defaults to a no-op until
// SetTracerProvider runs.
func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(tracerName)
}

// startSpan is a small wrapper so call sites read like the rest of the
// dispatch pipeline instead of repeating the otel boilerplate at each
// stage.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}
