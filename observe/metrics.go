package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records renewal metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordBatch records one batch run with duration and error status.
	RecordBatch(ctx context.Context, meta BatchMeta, duration time.Duration, err error)

	// RecordKey records the classification of one key and whether it was renewed.
	RecordKey(ctx context.Context, state string, renewed bool)
}

type metricsImpl struct {
	batchCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	keyCount     metric.Int64Counter
}

// NewMetrics creates a Metrics instance recording into meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	batchCount, err := meter.Int64Counter(
		"renewal.batch.total",
		metric.WithDescription("Total number of renewal batches"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"renewal.batch.errors",
		metric.WithDescription("Total number of aborted renewal batches"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"renewal.batch.duration_ms",
		metric.WithDescription("Renewal batch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	keyCount, err := meter.Int64Counter(
		"renewal.keys.total",
		metric.WithDescription("Keys evaluated, by state and renewal outcome"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		batchCount:   batchCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		keyCount:     keyCount,
	}, nil
}

// RecordBatch records metrics for a batch run.
func (m *metricsImpl) RecordBatch(ctx context.Context, meta BatchMeta, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{}
	if meta.Source != "" {
		attrs = append(attrs, attribute.String("batch.source", meta.Source))
	}
	opt := metric.WithAttributes(attrs...)

	m.batchCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordKey records one key decision.
func (m *metricsImpl) RecordKey(ctx context.Context, state string, renewed bool) {
	m.keyCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key.state", state),
		attribute.Bool("key.renewed", renewed),
	))
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) RecordBatch(context.Context, BatchMeta, time.Duration, error) {}
func (noopMetrics) RecordKey(context.Context, string, bool)                       {}
