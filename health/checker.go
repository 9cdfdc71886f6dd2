package health

import (
	"context"
	"maps"
	"time"
)

// Status is a component's readiness to serve renewal batches. Values are
// ordered by severity.
type Status int

const (
	StatusHealthy Status = iota
	// StatusDegraded still admits traffic; the store answers, but slowly.
	StatusDegraded
	StatusUnhealthy
)

var statusNames = [...]string{"healthy", "degraded", "unhealthy"}

// String returns healthy, degraded, unhealthy or unknown.
func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// Ready reports whether s admits traffic.
func (s Status) Ready() bool {
	return s == StatusHealthy || s == StatusDegraded
}

// Result is one checker's verdict.
type Result struct {
	Status  Status
	Message string

	// Details carries checker specific data; the store checker reports
	// addr, database and latency_ms.
	Details map[string]any

	// Duration is filled in by the Aggregator.
	Duration  time.Duration
	Timestamp time.Time
	Error     error
}

func newResult(s Status, message string, err error) Result {
	return Result{Status: s, Message: message, Error: err, Timestamp: time.Now()}
}

// Healthy creates a healthy result.
func Healthy(message string) Result { return newResult(StatusHealthy, message, nil) }

// Degraded creates a degraded result.
func Degraded(message string) Result { return newResult(StatusDegraded, message, nil) }

// Unhealthy creates an unhealthy result carrying err.
func Unhealthy(message string, err error) Result { return newResult(StatusUnhealthy, message, err) }

// WithDetails returns r with details merged over its existing details.
func (r Result) WithDetails(details map[string]any) Result {
	merged := make(map[string]any, len(r.Details)+len(details))
	maps.Copy(merged, r.Details)
	maps.Copy(merged, details)
	r.Details = merged
	return r
}

// Checker probes one dependency.
//
// Contract:
//   - Concurrency: Check may be called from several requests at once.
//   - Context: Check must return promptly once ctx is done.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

type checkFunc struct {
	name string
	fn   func(context.Context) Result
}

func (c checkFunc) Name() string                     { return c.name }
func (c checkFunc) Check(ctx context.Context) Result { return c.fn(ctx) }

// CheckFunc returns a Checker named name that runs fn.
func CheckFunc(name string, fn func(context.Context) Result) Checker {
	return checkFunc{name: name, fn: fn}
}
