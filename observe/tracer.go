package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Tracer opens one span per renewal batch.
type Tracer interface {
	StartSpan(ctx context.Context, meta BatchMeta) (context.Context, trace.Span)
	// EndSpan records err, if any, and ends span.
	EndSpan(span trace.Span, err error)
}

const (
	attrBatchID     = attribute.Key("batch.id")
	attrBatchSource = attribute.Key("batch.source")
	attrBatchItems  = attribute.Key("batch.items")
	attrBatchError  = attribute.Key("batch.error")
)

type batchTracer struct {
	t trace.Tracer
}

// NewTracer wraps t. A nil t yields NopTracer.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		return NopTracer()
	}
	return batchTracer{t: t}
}

func (b batchTracer) StartSpan(ctx context.Context, meta BatchMeta) (context.Context, trace.Span) {
	return b.t.Start(ctx, meta.SpanName(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(batchAttributes(meta)...),
	)
}

func (batchTracer) EndSpan(span trace.Span, err error) {
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetAttributes(attrBatchError.Bool(true))
	span.SetStatus(codes.Error, err.Error())
}

func batchAttributes(meta BatchMeta) []attribute.KeyValue {
	kv := make([]attribute.KeyValue, 0, 4)
	kv = append(kv, attrBatchItems.Int(meta.Items), attrBatchError.Bool(false))
	if meta.ID != "" {
		kv = append(kv, attrBatchID.String(meta.ID))
	}
	if meta.Source != "" {
		kv = append(kv, attrBatchSource.String(meta.Source))
	}
	return kv
}

// NopTracer returns a Tracer whose spans are never recorded.
func NopTracer() Tracer {
	return batchTracer{t: tracenoop.NewTracerProvider().Tracer("")}
}
