package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonwraymond/ttlrenew/observe"
)

// Manager owns the acquire/use/release lifecycle of store sessions.
// Each batch acquires its own Lease; leases are never shared between batches.
type Manager struct {
	dialer Dialer
	logger observe.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l observe.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a Manager over dialer.
func NewManager(dialer Dialer, opts ...ManagerOption) *Manager {
	m := &Manager{
		dialer: dialer,
		logger: observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire opens and verifies a session. On any failure after the dial
// succeeded, the partial session is closed before the error is returned.
// Returned errors wrap ErrConnect.
func (m *Manager) Acquire(ctx context.Context, creds Credentials) (*Lease, error) {
	if m == nil || m.dialer == nil {
		return nil, fmt.Errorf("%w: no dialer configured", ErrConnect)
	}

	fields := []observe.Field{
		observe.F("addr", creds.Addr()),
		observe.F("database", creds.Database),
		observe.F("tls", creds.TLS),
	}

	conn, err := m.dialer.Dial(ctx, creds)
	if err != nil {
		m.logger.Error(ctx, "store dial failed", append(fields, observe.F("error", err))...)
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnect, creds.Addr(), err)
	}

	if err := conn.Ping(ctx); err != nil {
		cerr := conn.Close()
		m.logger.Error(ctx, "store ping failed", append(fields, observe.F("error", err))...)
		return nil, fmt.Errorf("%w: ping %s: %w", ErrConnect, creds.Addr(), errors.Join(err, cerr))
	}

	m.logger.Debug(ctx, "store connection acquired", fields...)
	return &Lease{conn: conn, logger: m.logger, addr: creds.Addr()}, nil
}

// With acquires a lease, runs fn, and releases the lease on every exit path,
// including a panic in fn. Release failures are logged by the lease and do
// not replace fn's result.
func (m *Manager) With(ctx context.Context, creds Credentials, fn func(*Lease) error) error {
	lease, err := m.Acquire(ctx, creds)
	if err != nil {
		return err
	}
	defer func() { _ = lease.Release() }()
	return fn(lease)
}

// Lease is one acquired session. Release must be called exactly once;
// further calls are no-ops.
type Lease struct {
	conn   Conn
	logger observe.Logger
	addr   string

	once       sync.Once
	releaseErr error
}

// Conn returns the leased session.
func (l *Lease) Conn() Conn {
	if l == nil {
		return nil
	}
	return l.conn
}

// IsReady reports whether the session is currently usable.
func (l *Lease) IsReady() bool {
	if l == nil {
		return false
	}
	return IsReady(l.conn)
}

// Release closes the session if it is open. It is safe to call on a nil
// lease, on a lease whose transport already failed, and more than once.
func (l *Lease) Release() error {
	if l == nil || l.conn == nil {
		return nil
	}
	l.once.Do(func() {
		// A transport that already failed reports that failure again on
		// Close; only a close of a healthy session is worth surfacing.
		healthy := IsReady(l.conn)
		if err := l.conn.Close(); err != nil && healthy && !errors.Is(err, ErrClosed) {
			l.releaseErr = err
			l.logger.Warn(context.Background(), "store connection close failed",
				observe.F("addr", l.addr), observe.F("error", err))
			return
		}
		l.logger.Debug(context.Background(), "store connection released", observe.F("addr", l.addr))
	})
	return l.releaseErr
}
