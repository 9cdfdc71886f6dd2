package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/ttlrenew/store"
)

// DefaultSlowThreshold is the round trip above which the store is Degraded.
const DefaultSlowThreshold = 250 * time.Millisecond

// StoreChecker verifies that a session can be acquired, pinged and released.
type StoreChecker struct {
	manager *store.Manager
	creds   store.Credentials
	slow    time.Duration
}

// NewStoreChecker creates a checker for creds. A non-positive slow
// threshold uses DefaultSlowThreshold.
func NewStoreChecker(manager *store.Manager, creds store.Credentials, slow time.Duration) *StoreChecker {
	if slow <= 0 {
		slow = DefaultSlowThreshold
	}
	return &StoreChecker{manager: manager, creds: creds, slow: slow}
}

// Name returns "store".
func (c *StoreChecker) Name() string { return "store" }

// Check acquires a lease (which pings), then releases it.
func (c *StoreChecker) Check(ctx context.Context) Result {
	details := map[string]any{
		"addr":     c.creds.Addr(),
		"database": c.creds.Database,
	}

	start := time.Now()
	err := c.manager.With(ctx, c.creds, func(*store.Lease) error { return nil })
	latency := time.Since(start)
	details["latency_ms"] = latency.Milliseconds()

	if err != nil {
		return Unhealthy("store unreachable", err).WithDetails(details)
	}
	if latency > c.slow {
		return Degraded(fmt.Sprintf("store slow: %s", latency.Round(time.Millisecond))).WithDetails(details)
	}
	return Healthy("store reachable").WithDetails(details)
}

var _ Checker = (*StoreChecker)(nil)
