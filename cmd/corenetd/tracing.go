package main

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// setupTracing installs the process-wide TracerProvider that pkg/actor's
// tracedInvoke spans report to. Without this call otel.Tracer falls
// back to its no-op implementation; corenetd is the one binary in the
// module that actually stands up a provider, since pkg/actor itself
// must stay transport-agnostic.
func setupTracing(cfg NodeConfig) (func(context.Context) error, error) {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.Tracing.Exporter {
	case "jaeger":
		exporter, err = jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Tracing.Endpoint)))
	case "zipkin":
		exporter, err = zipkin.New(cfg.Tracing.Endpoint)
	case "", "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	default:
		return nil, fmt.Errorf("corenetd: unknown tracing exporter %q", cfg.Tracing.Exporter)
	}
	if err != nil {
		return nil, err
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(
		attribute.String("service.name", "corenetd"),
		attribute.Int("node.id", int(cfg.NodeID)),
	))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
