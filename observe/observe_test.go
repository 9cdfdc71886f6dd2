package observe

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	valid := Config{ServiceName: "ttlrenew"}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"minimal", func(*Config) {}, nil},
		{"missing service", func(c *Config) { c.ServiceName = "" }, ErrMissingServiceName},
		{"bad tracing exporter", func(c *Config) { c.Tracing = TracingConfig{Enabled: true, Exporter: "zipkin"} }, ErrInvalidTracingExporter},
		{"bad sample pct", func(c *Config) { c.Tracing = TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1.5} }, ErrInvalidSamplePct},
		{"disabled tracing ignores exporter", func(c *Config) { c.Tracing = TracingConfig{Exporter: "zipkin"} }, nil},
		{"bad metrics exporter", func(c *Config) { c.Metrics = MetricsConfig{Enabled: true, Exporter: "statsd"} }, ErrInvalidMetricsExporter},
		{"bad log level", func(c *Config) { c.Logging = LoggingConfig{Enabled: true, Level: "trace"} }, ErrInvalidLogLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewObserver(t *testing.T) {
	var buf bytes.Buffer
	obs, err := NewObserver(context.Background(), Config{
		ServiceName: "ttlrenew",
		Version:     "test",
		Tracing:     TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "none"},
		Logging:     LoggingConfig{Enabled: true, Level: "info", Output: &buf},
	})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	}()

	_, span := obs.Tracer().Start(context.Background(), "probe")
	if !span.SpanContext().IsValid() {
		t.Fatalf("tracing enabled but span context invalid")
	}
	span.End()

	if _, err := NewMetrics(obs.Meter()); err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	obs.Logger().Info(context.Background(), "hello")
	if buf.Len() == 0 {
		t.Fatalf("logger did not write to the configured output")
	}
}

func TestNewObserver_Disabled(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "ttlrenew"})
	if err != nil {
		t.Fatal(err)
	}
	_, span := obs.Tracer().Start(context.Background(), "probe")
	if span.SpanContext().IsValid() {
		t.Fatalf("disabled tracing produced a recording span")
	}
	if err := obs.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestNewObserver_InvalidConfig(t *testing.T) {
	if _, err := NewObserver(context.Background(), Config{}); !errors.Is(err, ErrMissingServiceName) {
		t.Fatalf("NewObserver() error = %v", err)
	}
}
