package observe

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestMiddleware_Wrap(t *testing.T) {
	tracer, spans := newRecordingTracer()
	metrics, reader := newTestMetrics(t)
	var buf bytes.Buffer
	mw := NewMiddleware(tracer, metrics, NewLoggerWithWriter("info", &buf))

	boom := errors.New("boom")
	var sawSpan bool
	exec := mw.Wrap(func(ctx context.Context, meta BatchMeta, input any) (any, error) {
		sawSpan = trace.SpanFromContext(ctx).SpanContext().IsValid()
		if input == "fail" {
			return nil, boom
		}
		return "ok", nil
	})

	meta := BatchMeta{ID: "b", Source: "cli", Items: 1}
	out, err := exec(context.Background(), meta, "in")
	if err != nil || out != "ok" {
		t.Fatalf("exec() = %v, %v", out, err)
	}
	if !sawSpan {
		t.Fatalf("span not propagated to the wrapped function")
	}
	if _, err := exec(context.Background(), meta, "fail"); !errors.Is(err, boom) {
		t.Fatalf("error not returned unchanged: %v", err)
	}

	if n := len(spans.Ended()); n != 2 {
		t.Fatalf("spans = %d, want 2", n)
	}
	rm := collect(t, reader)
	if got := sumValue(t, rm, "renewal.batch.total"); got != 2 {
		t.Fatalf("renewal.batch.total = %d, want 2", got)
	}
	lines := decodeLines(t, &buf)
	if len(lines) != 2 || lines[0]["msg"] != "renewal batch completed" || lines[1]["msg"] != "renewal batch failed" {
		t.Fatalf("log lines = %v", lines)
	}
	if lines[1]["error"] != "boom" || lines[1]["batch.id"] != "b" {
		t.Fatalf("failure line = %v", lines[1])
	}
}

type counts [2]int

func (c counts) Counts() (int, int) { return c[0], c[1] }

func TestMiddleware_LogsSummary(t *testing.T) {
	var buf bytes.Buffer
	exec := NewMiddleware(nil, nil, NewLoggerWithWriter("info", &buf)).Wrap(func(context.Context, BatchMeta, any) (any, error) {
		return counts{2, 3}, nil
	})
	if _, err := exec(context.Background(), BatchMeta{Source: "http"}, nil); err != nil {
		t.Fatal(err)
	}
	line := decodeLines(t, &buf)[0]
	if line["renewed"] != float64(2) || line["not_renewed"] != float64(3) {
		t.Fatalf("line = %v", line)
	}
}

func TestMiddleware_NilComponents(t *testing.T) {
	exec := NewMiddleware(nil, nil, nil).Wrap(func(context.Context, BatchMeta, any) (any, error) {
		return 1, nil
	})
	if out, err := exec(context.Background(), BatchMeta{}, nil); err != nil || out != 1 {
		t.Fatalf("exec() = %v, %v", out, err)
	}
}

type stubObserver struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

func (o stubObserver) Tracer() trace.Tracer           { return o.tp.Tracer("stub") }
func (o stubObserver) Meter() metric.Meter            { return o.mp.Meter("stub") }
func (o stubObserver) Logger() Logger                 { return NopLogger() }
func (o stubObserver) Shutdown(context.Context) error { return nil }

func TestMiddlewareFromObserver(t *testing.T) {
	if _, err := MiddlewareFromObserver(nil); !errors.Is(err, ErrNilObserver) {
		t.Fatalf("nil observer error = %v", err)
	}

	rec := tracetest.NewSpanRecorder()
	obs := stubObserver{
		tp: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)),
		mp: sdkmetric.NewMeterProvider(),
	}
	mw, err := MiddlewareFromObserver(obs)
	if err != nil {
		t.Fatalf("MiddlewareFromObserver() error = %v", err)
	}
	_, _ = mw.Wrap(func(context.Context, BatchMeta, any) (any, error) { return nil, nil })(
		context.Background(), BatchMeta{Source: "http"}, nil)
	if len(rec.Ended()) != 1 {
		t.Fatalf("observer tracer not used")
	}
}
