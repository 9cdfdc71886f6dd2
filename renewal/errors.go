package renewal

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by the engine matches exactly one of
// these with errors.Is.
var (
	ErrConfiguration = errors.New("renewal: configuration error")
	ErrConnection    = errors.New("renewal: connection error")
	ErrValueDecode   = errors.New("renewal: value decode error")
	ErrStoreCommand  = errors.New("renewal: store command error")
)

// ErrEmptyKey is the cause of a configuration error for an empty key.
var ErrEmptyKey = errors.New("key is empty")

// Error is a batch-aborting failure with enough context to diagnose it.
type Error struct {
	// Kind is one of ErrConfiguration, ErrConnection, ErrValueDecode, ErrStoreCommand.
	Kind error

	// Index is the position of the failing item, or -1 for batch-level failures.
	Index int

	// Key is the failing item's key, if any.
	Key string

	// Op names the step that failed: validate, acquire, ready, exists, ttl,
	// get, decode, expire.
	Op string

	// Err is the underlying cause.
	Err error
}

// Error returns the error message.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("renewal: error")
	}
	if e.Op != "" {
		fmt.Fprintf(&b, ": op=%s", e.Op)
	}
	if e.Index >= 0 {
		fmt.Fprintf(&b, " item=%d", e.Index)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " key=%q", e.Key)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Kind names for errors, as used in API responses and metric labels.
const (
	KindConfiguration = "configuration"
	KindConnection    = "connection"
	KindValueDecode   = "value_decode"
	KindStoreCommand  = "store_command"
)

// KindOf returns the kind name of err, or "" if err is not a renewal error.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrConnection):
		return KindConnection
	case errors.Is(err, ErrValueDecode):
		return KindValueDecode
	case errors.Is(err, ErrStoreCommand):
		return KindStoreCommand
	default:
		return ""
	}
}

// Retryable reports whether re-invoking the whole batch may succeed: true
// for connection and store command failures, false for configuration and
// decode failures, which would fail identically again.
func Retryable(err error) bool {
	return errors.Is(err, ErrConnection) || errors.Is(err, ErrStoreCommand)
}

func configError(index int, key, op string, err error) *Error {
	return &Error{Kind: ErrConfiguration, Index: index, Key: key, Op: op, Err: err}
}
