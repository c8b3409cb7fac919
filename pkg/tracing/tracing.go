// Package tracing provides OpenTelemetry tracing for the toolchain's build
// and run pipeline, with configurable exporters for development and
// production environments.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the configuration for the tracing system
type Config struct {
	// ServiceName is the name of the service being traced
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// ExporterType specifies which exporter to use ("stdout" or "otlp")
	ExporterType string

	// OTLPEndpoint is the endpoint for the OTLP exporter (e.g., "localhost:4317")
	OTLPEndpoint string

	// SamplingRate is the rate at which traces are sampled (0.0 to 1.0)
	SamplingRate float64

	// Enabled determines if tracing is enabled
	Enabled bool
}

// DefaultConfig returns a default configuration for development
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "flare",
		ServiceVersion: "1.0.0",
		ExporterType:   "stdout",
		SamplingRate:   1.0,
		Enabled:        true,
	}
}

// TracerProvider wraps the OpenTelemetry tracer provider
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	config   *Config
}

// InitTracing initializes the OpenTelemetry tracing system. The returned
// provider must be shut down when the process exits.
func InitTracing(config *Config) (*TracerProvider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if !config.Enabled {
		return &TracerProvider{
			provider: sdktrace.NewTracerProvider(),
			config:   config,
		}, nil
	}

	var exporter sdktrace.SpanExporter
	var err error
	switch config.ExporterType {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		exporter, err = otlptrace.New(
			context.Background(),
			otlptracegrpc.NewClient(
				otlptracegrpc.WithEndpoint(config.OTLPEndpoint),
				otlptracegrpc.WithInsecure(),
			),
		)
	default:
		return nil, fmt.Errorf("unknown exporter type: %s", config.ExporterType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(config.SamplingRate)),
	)
	otel.SetTracerProvider(provider)

	return &TracerProvider{provider: provider, config: config}, nil
}

// Shutdown flushes and stops the provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	return tp.provider.Shutdown(ctx)
}

// Tracer returns the toolchain tracer.
func Tracer() trace.Tracer {
	return otel.Tracer("flare")
}

// StartSpan starts a pipeline-phase span (build, lex, parse, compile,
// encode, run).
func StartSpan(ctx context.Context, phase string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, phase)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

// EndSpan records err on span and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
