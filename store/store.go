package store

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"
)

// TTL sentinels returned by Conn.TTL.
const (
	NoExpiry int64 = -1
	Missing  int64 = -2
)

// Sentinel errors for store operations.
var (
	ErrConnect   = errors.New("store: connection failed")
	ErrNotReady  = errors.New("store: connection is not usable")
	ErrClosed    = errors.New("store: connection closed")
	ErrBadReply  = errors.New("store: unexpected reply")
	ErrEmptyHost = errors.New("store: host is required")
)

// Credentials describe how to reach and authenticate against the store.
type Credentials struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	Database      int           `mapstructure:"database"`
	TLS           bool          `mapstructure:"tls"`
	TLSSkipVerify bool          `mapstructure:"tls_skip_verify"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
}

// DefaultCredentials returns credentials for a local, unauthenticated Redis.
func DefaultCredentials() Credentials {
	return Credentials{
		Host:        "localhost",
		Port:        6379,
		DialTimeout: 5 * time.Second,
	}
}

// Addr returns host:port, filling the default port when unset.
func (c Credentials) Addr() string {
	port := c.Port
	if port <= 0 {
		port = 6379
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// Validate checks that the credentials can be dialed.
func (c Credentials) Validate() error {
	if c.Host == "" {
		return ErrEmptyHost
	}
	if c.Port < 0 || c.Port > 65535 {
		return errors.New("store: port out of range")
	}
	if c.Database < 0 {
		return errors.New("store: database index must not be negative")
	}
	return nil
}

// Conn is one logical session to the store.
//
// Contract:
// - Concurrency: a Conn is owned by a single batch and is not safe for
//   concurrent use.
// - Context: each call is one blocking round trip and honors ctx deadlines
//   where the transport supports it.
// - Errors: command failures are returned as-is; Err reports whether the
//   session is still usable afterwards.
type Conn interface {
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Get returns the stored value. ok is false when the key holds no value.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// TTL returns the remaining seconds, NoExpiry or Missing.
	TTL(ctx context.Context, key string) (int64, error)

	// Expire sets the key's TTL. Returns false if the key does not exist.
	Expire(ctx context.Context, key string, seconds int64) (bool, error)

	// Ping verifies the session round trip.
	Ping(ctx context.Context) error

	// Err returns a non-nil error once the session can no longer be used.
	Err() error

	// Close tears the session down. Closing twice is not an error.
	Close() error
}

// Dialer opens new sessions.
type Dialer interface {
	Dial(ctx context.Context, creds Credentials) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, creds Credentials) (Conn, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, creds Credentials) (Conn, error) {
	return f(ctx, creds)
}

// IsReady reports whether c is non-nil and still usable.
func IsReady(c Conn) bool {
	return c != nil && c.Err() == nil
}
