package resilience

import (
	"context"
	"time"
)

// Executor composes the batch policies.
type Executor struct {
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
	circuitBreaker *CircuitBreaker
	retry          *Retry
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an executor. With no options it runs op directly.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRateLimiter caps how often batches start.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) { e.rateLimiter = rl }
}

// WithBulkhead caps concurrent batches.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) { e.bulkhead = b }
}

// WithCircuitBreaker stops batches against a failing store.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.circuitBreaker = cb }
}

// WithRetry re-runs failed batches.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithTimeout bounds each attempt. A non-positive d disables the bound.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = NewTimeout(d)
		} else {
			e.timeout = nil
		}
	}
}

// CircuitBreaker returns the configured breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	return e.circuitBreaker
}

// Execute runs op through the configured policies, outermost first:
// rate limiter, bulkhead, circuit breaker, retry, timeout. A retried batch
// holds its bulkhead slot and counts once toward the breaker.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	run := op
	if e.timeout != nil {
		run = wrap(run, e.timeout.Execute)
	}
	if e.retry != nil {
		run = wrap(run, e.retry.Execute)
	}
	if e.circuitBreaker != nil {
		run = wrap(run, e.circuitBreaker.Execute)
	}
	if e.bulkhead != nil {
		run = wrap(run, e.bulkhead.Execute)
	}
	if e.rateLimiter != nil {
		run = wrap(run, e.rateLimiter.Execute)
	}
	return run(ctx)
}

type policy func(context.Context, func(context.Context) error) error

func wrap(inner func(context.Context) error, outer policy) func(context.Context) error {
	return func(ctx context.Context) error {
		return outer(ctx, inner)
	}
}
