package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures the token bucket.
type RateLimiterConfig struct {
	// Rate is batches per second. Default: 100.
	Rate float64 `mapstructure:"rate"`

	// Burst is the bucket size. Default: 10.
	Burst int `mapstructure:"burst"`

	// Now is the clock. Default: time.Now.
	Now func() time.Time `mapstructure:"-"`
}

// RateLimiter admits batches from a token bucket. It never waits: a batch
// arriving to an empty bucket is refused.
type RateLimiter struct {
	limiter *rate.Limiter
	now     func() time.Time
}

// NewRateLimiter creates a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 100
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
		now:     config.Now,
	}
}

// Allow takes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.AllowN(rl.now(), 1)
}

// Execute runs op if a token is available, otherwise returns
// ErrRateLimitExceeded.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if !rl.Allow() {
		return ErrRateLimitExceeded
	}
	return op(ctx)
}
