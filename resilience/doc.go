// Package resilience guards whole renewal batches.
//
// A batch is all-or-nothing, so every policy here acts on the batch as a
// unit:
//
//   - Retry re-runs a failed batch from scratch with backoff. Callers decide
//     which failures are worth retrying through RetryIf.
//   - Timeout bounds one batch attempt. The attempt is waited for, so any
//     store session it holds is released before Execute returns.
//   - CircuitBreaker stops dialing a store that keeps failing.
//   - Bulkhead caps concurrent batches, and with them concurrent store
//     sessions.
//   - RateLimiter caps how often batches may start.
//
// Executor composes them:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 8})),
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{RetryIf: renewal.Retryable})),
//	    resilience.WithTimeout(10*time.Second),
//	)
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    res, err = engine.Run(ctx, mgr, creds, items)
//	    return err
//	})
package resilience
