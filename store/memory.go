package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrAuth is returned by MemoryStore dials with the wrong password.
var ErrAuth = errors.New("store: authentication failed")

// MemoryStore is an in-process key-value store with Redis TTL semantics.
// Expired entries are removed lazily on access.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]*memoryEntry
	now      func() time.Time
	password string
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the store's time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// WithPassword makes Dial reject credentials with a different password.
func WithPassword(password string) MemoryOption {
	return func(s *MemoryStore) {
		s.password = password
	}
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set stores value with the given TTL. ttl <= 0 stores it without expiry.
func (s *MemoryStore) Set(key, value string, ttl time.Duration) {
	e := &memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
}

// SetPersistent stores value without expiry.
func (s *MemoryStore) SetPersistent(key, value string) {
	s.Set(key, value, 0)
}

// Delete removes key. Idempotent.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len returns the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.entries {
		if s.liveLocked(k) != nil {
			n++
		}
	}
	return n
}

// liveLocked returns the entry for key, dropping it if expired.
// Callers must hold the write lock.
func (s *MemoryStore) liveLocked(key string) *memoryEntry {
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil
	}
	return e
}

func (s *MemoryStore) exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLocked(key) != nil
}

func (s *MemoryStore) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.liveLocked(key)
	if e == nil {
		return "", false
	}
	return e.value, true
}

func (s *MemoryStore) ttl(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.liveLocked(key)
	switch {
	case e == nil:
		return Missing
	case e.expiresAt.IsZero():
		return NoExpiry
	}
	// Same rounding as Redis: milliseconds rounded to the nearest second.
	ms := e.expiresAt.Sub(s.now()).Milliseconds()
	return (ms + 500) / 1000
}

func (s *MemoryStore) expire(key string, seconds int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.liveLocked(key)
	if e == nil {
		return false
	}
	if seconds <= 0 {
		delete(s.entries, key)
		return true
	}
	e.expiresAt = s.now().Add(time.Duration(seconds) * time.Second)
	return true
}

// Dialer returns a Dialer handing out sessions over this store.
func (s *MemoryStore) Dialer() Dialer {
	return DialerFunc(func(ctx context.Context, creds Credentials) (Conn, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.password != "" && creds.Password != s.password {
			return nil, ErrAuth
		}
		return &memoryConn{store: s}, nil
	})
}

// memoryConn is a session over a MemoryStore.
type memoryConn struct {
	store  *MemoryStore
	closed bool
}

func (c *memoryConn) check(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	return ctx.Err()
}

func (c *memoryConn) Exists(ctx context.Context, key string) (bool, error) {
	if err := c.check(ctx); err != nil {
		return false, err
	}
	return c.store.exists(key), nil
}

func (c *memoryConn) Get(ctx context.Context, key string) (string, bool, error) {
	if err := c.check(ctx); err != nil {
		return "", false, err
	}
	v, ok := c.store.get(key)
	return v, ok, nil
}

func (c *memoryConn) TTL(ctx context.Context, key string) (int64, error) {
	if err := c.check(ctx); err != nil {
		return 0, err
	}
	return c.store.ttl(key), nil
}

func (c *memoryConn) Expire(ctx context.Context, key string, seconds int64) (bool, error) {
	if err := c.check(ctx); err != nil {
		return false, err
	}
	return c.store.expire(key, seconds), nil
}

func (c *memoryConn) Ping(ctx context.Context) error {
	return c.check(ctx)
}

func (c *memoryConn) Err() error {
	if c.closed {
		return ErrClosed
	}
	return nil
}

func (c *memoryConn) Close() error {
	c.closed = true
	return nil
}

var _ Conn = (*memoryConn)(nil)
