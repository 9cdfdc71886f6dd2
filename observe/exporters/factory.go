// Package exporters builds OpenTelemetry exporters from configuration names.
//
// Console exporters write to stderr: stdout carries batch results.
package exporters

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	// ErrEndpointNotConfigured is returned for a network exporter whose
	// endpoint variable is unset.
	ErrEndpointNotConfigured = errors.New("exporters: endpoint not configured")

	// ErrUnknownExporter is returned for an unsupported exporter name.
	ErrUnknownExporter = errors.New("exporters: unknown exporter")
)

// requireEndpoint succeeds when any of vars is set to a non-empty value.
func requireEndpoint(vars ...string) error {
	for _, v := range vars {
		if os.Getenv(v) != "" {
			return nil
		}
	}
	return fmt.Errorf("%w: set %s", ErrEndpointNotConfigured, strings.Join(vars, " or "))
}

// NewTracingExporter returns the span exporter called name: stdout, otlp,
// jaeger or none. none and the empty name return a nil exporter, so spans
// are sampled but never exported.
func NewTracingExporter(ctx context.Context, name string) (sdktrace.SpanExporter, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	case "otlp":
		if err := requireEndpoint("OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx)
	case "jaeger":
		// Jaeger ingests OTLP.
		if err := requireEndpoint("OTEL_EXPORTER_JAEGER_ENDPOINT"); err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx)
	}
	return nil, fmt.Errorf("%w: tracing %q", ErrUnknownExporter, name)
}

// NewMetricsReader returns the metrics reader called name: stdout, otlp,
// prometheus or none. The prometheus reader registers with the default
// Prometheus registerer, which the serve command exposes on /metrics.
func NewMetricsReader(ctx context.Context, name string) (sdkmetric.Reader, error) {
	var (
		exp sdkmetric.Exporter
		err error
	)
	switch name {
	case "", "none":
		return nil, nil
	case "prometheus":
		return prometheus.New()
	case "stdout":
		exp, err = stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
	case "otlp":
		if err := requireEndpoint("OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"); err != nil {
			return nil, err
		}
		exp, err = otlpmetricgrpc.New(ctx)
	default:
		return nil, fmt.Errorf("%w: metrics %q", ErrUnknownExporter, name)
	}
	if err != nil {
		return nil, fmt.Errorf("exporters: %s metrics: %w", name, err)
	}
	return sdkmetric.NewPeriodicReader(exp), nil
}
