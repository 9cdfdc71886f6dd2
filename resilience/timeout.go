package resilience

import (
	"context"
	"errors"
	"time"
)

// Timeout bounds a single attempt.
type Timeout struct {
	d time.Duration
}

// NewTimeout creates a timeout of d. A non-positive d means 30s.
func NewTimeout(d time.Duration) *Timeout {
	if d <= 0 {
		d = 30 * time.Second
	}
	return &Timeout{d: d}
}

// Duration returns the configured bound.
func (t *Timeout) Duration() time.Duration {
	return t.d
}

// Execute runs op under a deadline and waits for it to return. Store
// commands honor the deadline, so op unwinds (and releases its session)
// shortly after it expires. A deadline hit is reported as ErrTimeout joined
// with op's own error.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	err := op(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Join(ErrTimeout, err)
	}
	return err
}
