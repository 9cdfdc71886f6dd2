package resilience

import "errors"

var (
	// ErrCircuitOpen is returned while the breaker refuses batches.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrRateLimitExceeded is returned when no token is available.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when every batch slot is taken.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when a batch attempt exceeds its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// Rejected reports whether err means the batch was never started.
func Rejected(err error) bool {
	return errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, ErrBulkheadFull) ||
		errors.Is(err, ErrRateLimitExceeded)
}
