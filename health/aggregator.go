package health

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultCheckTimeout bounds a full CheckAll run.
const DefaultCheckTimeout = 5 * time.Second

// Aggregator runs a set of named checkers under one deadline.
type Aggregator struct {
	timeout time.Duration

	mu       sync.RWMutex
	checkers []Checker
}

// NewAggregator returns an aggregator whose runs are bounded by timeout,
// or DefaultCheckTimeout when timeout is not positive.
func NewAggregator(timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return &Aggregator{timeout: timeout}
}

// Register adds checker, replacing one with the same name in place.
func (a *Aggregator) Register(checker Checker) {
	if checker == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if i := a.index(checker.Name()); i >= 0 {
		a.checkers[i] = checker
		return
	}
	a.checkers = append(a.checkers, checker)
}

func (a *Aggregator) index(name string) int {
	return slices.IndexFunc(a.checkers, func(c Checker) bool { return c.Name() == name })
}

// Names returns checker names in registration order.
func (a *Aggregator) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, len(a.checkers))
	for i, c := range a.checkers {
		names[i] = c.Name()
	}
	return names
}

// Check runs the checker registered under name.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	i := a.index(name)
	var c Checker
	if i >= 0 {
		c = a.checkers[i]
	}
	a.mu.RUnlock()
	if c == nil {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return run(ctx, c), nil
}

// CheckAll runs every checker concurrently and keys the results by name.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	a.mu.RLock()
	checkers := slices.Clone(a.checkers)
	a.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	results := make([]Result, len(checkers))
	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			results[i] = run(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]Result, len(checkers))
	for i, c := range checkers {
		out[c.Name()] = results[i]
	}
	return out
}

// Overall folds results into one status: any Unhealthy wins, then any
// Degraded. An empty set is Healthy.
func Overall(results map[string]Result) Status {
	worst := StatusHealthy
	for _, r := range results {
		worst = max(worst, r.Status)
	}
	return worst
}

// run stops waiting for c once ctx ends. A checker that ignores ctx keeps
// running in the background and its late result is dropped.
func run(ctx context.Context, c Checker) Result {
	start := time.Now()
	done := make(chan Result, 1)
	go func() { done <- c.Check(ctx) }()

	var r Result
	select {
	case r = <-done:
	case <-ctx.Done():
		r = Result{Status: StatusUnhealthy, Message: "check timed out", Error: ErrCheckTimeout}
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = start
	}
	r.Duration = time.Since(start)
	return r
}
