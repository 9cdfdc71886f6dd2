package health

import "errors"

// ErrCheckTimeout is the Result.Error of a checker that overran the
// aggregator's per-check timeout.
var ErrCheckTimeout = errors.New("health: check timed out")

// ErrCheckerNotFound is returned by Aggregator.Check for an unknown name.
var ErrCheckerNotFound = errors.New("health: no such checker")
