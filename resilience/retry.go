package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy defines how delays grow between attempts.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear grows the delay by InitialDelay each attempt.
	BackoffLinear
	// BackoffConstant always waits InitialDelay.
	BackoffConstant
)

// ParseBackoff maps "exponential", "linear" and "constant" to a strategy.
// Anything else is exponential.
func ParseBackoff(s string) BackoffStrategy {
	switch s {
	case "linear":
		return BackoffLinear
	case "constant":
		return BackoffConstant
	default:
		return BackoffExponential
	}
}

// RetryConfig configures whole-batch retries.
type RetryConfig struct {
	// MaxAttempts counts the first attempt. Default: 3.
	MaxAttempts int `mapstructure:"max_attempts"`

	// InitialDelay is the wait before the second attempt. Default: 100ms.
	InitialDelay time.Duration `mapstructure:"initial_delay"`

	// MaxDelay caps any single wait. Default: 5s.
	MaxDelay time.Duration `mapstructure:"max_delay"`

	// Multiplier applies to BackoffExponential. Default: 2.
	Multiplier float64 `mapstructure:"multiplier"`

	Strategy BackoffStrategy `mapstructure:"-"`

	// Jitter adds up to 25% to each wait.
	Jitter bool `mapstructure:"jitter"`

	// RetryIf selects retryable failures. Default: every error.
	RetryIf func(err error) bool `mapstructure:"-"`

	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, delay time.Duration) `mapstructure:"-"`
}

// Retry re-runs an operation with backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry applies defaults to config.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 5 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}
	return &Retry{config: config}
}

// Execute runs op until it succeeds, returns a non-retryable error, or the
// attempts run out. The last error is returned unchanged.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if attempt >= r.config.MaxAttempts || !r.config.RetryIf(err) {
			return err
		}

		delay := r.delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *Retry) delay(attempt int) time.Duration {
	var d time.Duration
	switch r.config.Strategy {
	case BackoffConstant:
		d = r.config.InitialDelay
	case BackoffLinear:
		d = r.config.InitialDelay * time.Duration(attempt)
	default:
		d = time.Duration(float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1)))
	}
	if d > r.config.MaxDelay {
		d = r.config.MaxDelay
	}
	if r.config.Jitter && d >= 4 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		d += time.Duration(rand.Int64N(int64(d / 4)))
	}
	return d
}

// Config returns the effective configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
