package exporters

import (
	"context"
	"errors"
	"testing"
)

func TestNewTracingExporter(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_JAEGER_ENDPOINT", "")

	tests := []struct {
		name    string
		wantNil bool
		wantErr error
	}{
		{name: "none", wantNil: true},
		{name: "", wantNil: true},
		{name: "stdout"},
		{name: "otlp", wantErr: ErrEndpointNotConfigured},
		{name: "jaeger", wantErr: ErrEndpointNotConfigured},
		{name: "zipkin", wantErr: ErrUnknownExporter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := NewTracingExporter(context.Background(), tt.name)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			case err != nil:
				t.Fatalf("error = %v", err)
			}
			if (exp == nil) != tt.wantNil {
				t.Fatalf("exporter nil = %v, want %v", exp == nil, tt.wantNil)
			}
			if exp != nil {
				_ = exp.Shutdown(context.Background())
			}
		})
	}
}

func TestNewMetricsReader(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	if r, err := NewMetricsReader(context.Background(), "none"); err != nil || r != nil {
		t.Fatalf("none = %v, %v", r, err)
	}
	if _, err := NewMetricsReader(context.Background(), "otlp"); !errors.Is(err, ErrEndpointNotConfigured) {
		t.Fatalf("otlp error = %v", err)
	}
	if _, err := NewMetricsReader(context.Background(), "statsd"); !errors.Is(err, ErrUnknownExporter) {
		t.Fatalf("statsd error = %v", err)
	}
	r, err := NewMetricsReader(context.Background(), "stdout")
	if err != nil || r == nil {
		t.Fatalf("stdout = %v, %v", r, err)
	}
	_ = r.Shutdown(context.Background())
}
