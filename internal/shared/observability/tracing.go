package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the process-wide tracer for the build pipeline. It resolves
// to the no-op provider until SetupTracing installs a real one.
var Tracer trace.Tracer = otel.Tracer("opsboard")

// SetupTracing installs an OTLP gRPC trace exporter and returns its
// shutdown function. An empty endpoint keeps the no-op provider, so
// callers can always defer the returned function.
func SetupTracing(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "opsboard"),
		)),
	)
	otel.SetTracerProvider(provider)
	Tracer = otel.Tracer("opsboard")

	return provider.Shutdown, nil
}
