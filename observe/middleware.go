package observe

import (
	"context"
	"time"
)

// ExecuteFunc runs one batch. input and the returned value are opaque to
// the middleware.
type ExecuteFunc func(ctx context.Context, meta BatchMeta, input any) (any, error)

// Summary is implemented by batch results that can report their outcome
// split. The middleware adds the counts to the completion log line.
type Summary interface {
	Counts() (renewed, notRenewed int)
}

// Middleware records a span, batch metrics and one log line around every
// batch. Errors from the wrapped function are returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components become no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	m := &Middleware{tracer: tracer, metrics: metrics, logger: logger}
	if m.tracer == nil {
		m.tracer = NopTracer()
	}
	if m.metrics == nil {
		m.metrics = NopMetrics()
	}
	if m.logger == nil {
		m.logger = NopLogger()
	}
	return m
}

// Wrap returns fn instrumented. The span travels to fn through ctx.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, meta BatchMeta, input any) (out any, err error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()
		defer func() {
			elapsed := time.Since(start)
			m.tracer.EndSpan(span, err)
			m.metrics.RecordBatch(ctx, meta, elapsed, err)
			m.log(ctx, meta, elapsed, out, err)
		}()
		return fn(ctx, meta, input)
	}
}

func (m *Middleware) log(ctx context.Context, meta BatchMeta, elapsed time.Duration, out any, err error) {
	l := m.logger.WithBatch(meta)
	fields := []Field{F("duration_ms", float64(elapsed.Milliseconds()))}
	if err != nil {
		l.Error(ctx, "renewal batch failed", append(fields, F("error", err))...)
		return
	}
	if s, ok := out.(Summary); ok {
		renewed, notRenewed := s.Counts()
		fields = append(fields, F("renewed", renewed), F("not_renewed", notRenewed))
	}
	l.Info(ctx, "renewal batch completed", fields...)
}

// MiddlewareFromObserver builds a Middleware on obs's tracer, meter and
// logger.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
