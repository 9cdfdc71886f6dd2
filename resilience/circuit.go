package resilience

import (
	"context"
	"sync"
	"time"
)

// State is the breaker position.
type State int

const (
	// StateClosed lets batches through.
	StateClosed State = iota
	// StateOpen rejects batches.
	StateOpen
	// StateHalfOpen lets a limited number of probe batches through.
	StateHalfOpen
)

var stateNames = [...]string{"closed", "open", "half-open"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// CircuitBreakerConfig configures the breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the consecutive failure count that opens the circuit.
	// Default: 5
	MaxFailures int `mapstructure:"max_failures"`

	// ResetTimeout is how long the circuit stays open. Default: 30s.
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`

	// HalfOpenMaxRequests is the number of probes allowed. Default: 1.
	HalfOpenMaxRequests int `mapstructure:"half_open_max_requests"`

	// OnStateChange is called with the lock held; it must not call back
	// into the breaker.
	OnStateChange func(from, to State) `mapstructure:"-"`

	// IsFailure selects the errors that count. Default: every error.
	IsFailure func(err error) bool `mapstructure:"-"`

	// Now is the clock. Default: time.Now.
	Now func() time.Time `mapstructure:"-"`
}

// CircuitBreaker implements the circuit breaker pattern.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probes   int
}

// NewCircuitBreaker applies defaults to config.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &CircuitBreaker{config: config}
}

// Execute runs op unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := op(ctx)
	cb.record(err)
	return err
}

// State returns the current position.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked()
}

// Failures returns the current consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset closes the circuit.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.transitionLocked(StateClosed)
}

// admit reserves a probe slot when half-open.
func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state := cb.stateLocked()
	if state == StateOpen || (state == StateHalfOpen && cb.probes >= cb.config.HalfOpenMaxRequests) {
		return ErrCircuitOpen
	}
	if state == StateHalfOpen {
		cb.probes++
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	// Late results from before the circuit opened do not move it.
	if cb.state == StateOpen {
		return
	}
	if !cb.config.IsFailure(err) {
		cb.failures = 0
		cb.transitionLocked(StateClosed)
		return
	}
	cb.failures++
	if cb.state == StateHalfOpen || cb.failures >= cb.config.MaxFailures {
		cb.trip()
	}
}

// trip opens the circuit and starts the reset timer.
func (cb *CircuitBreaker) trip() {
	cb.openedAt = cb.config.Now()
	cb.transitionLocked(StateOpen)
}

// stateLocked moves an open circuit to half-open once ResetTimeout has
// elapsed.
func (cb *CircuitBreaker) stateLocked() State {
	if cb.state == StateOpen && cb.config.Now().Sub(cb.openedAt) >= cb.config.ResetTimeout {
		cb.transitionLocked(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) transitionLocked(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.probes = 0
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}
