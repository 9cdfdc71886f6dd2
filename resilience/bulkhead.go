package resilience

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// BulkheadConfig configures the bulkhead.
type BulkheadConfig struct {
	// MaxConcurrent is the number of batches, and so store sessions, that
	// may run at once. Default: 10.
	MaxConcurrent int `mapstructure:"max_concurrent"`

	// MaxWait is how long to queue for a slot. Zero fails immediately.
	MaxWait time.Duration `mapstructure:"max_wait"`
}

// Bulkhead limits concurrent batches.
type Bulkhead struct {
	sem      *semaphore.Weighted
	maxWait  time.Duration
	active   atomic.Int64
	rejected atomic.Int64
}

// NewBulkhead applies defaults to config.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}
	return &Bulkhead{
		sem:     semaphore.NewWeighted(int64(config.MaxConcurrent)),
		maxWait: config.MaxWait,
	}
}

// Acquire takes a slot, waiting up to MaxWait. It returns ErrBulkheadFull
// when no slot frees up in time and ctx's error when ctx ends first.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	if b.sem.TryAcquire(1) {
		b.active.Add(1)
		return nil
	}
	if b.maxWait <= 0 {
		b.rejected.Add(1)
		return ErrBulkheadFull
	}

	wait, cancel := context.WithTimeout(ctx, b.maxWait)
	defer cancel()
	if err := b.sem.Acquire(wait, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.rejected.Add(1)
		return ErrBulkheadFull
	}
	b.active.Add(1)
	return nil
}

// Release frees a slot taken by Acquire. Extra calls are ignored.
func (b *Bulkhead) Release() {
	for {
		n := b.active.Load()
		if n <= 0 {
			return
		}
		if b.active.CompareAndSwap(n, n-1) {
			b.sem.Release(1)
			return
		}
	}
}

// Execute runs op inside a slot.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()
	return op(ctx)
}

// Active returns the number of occupied slots.
func (b *Bulkhead) Active() int {
	return int(b.active.Load())
}

// Rejected returns the number of refused batches.
func (b *Bulkhead) Rejected() int64 {
	return b.rejected.Load()
}
