package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/gomodule/redigo/redis"
)

// RedisDialer dials Redis sessions with redigo.
type RedisDialer struct {
	// Network is the dial network. Default: "tcp".
	Network string
}

// NewRedisDialer creates a Redis dialer.
func NewRedisDialer() *RedisDialer {
	return &RedisDialer{Network: "tcp"}
}

// Dial opens a session, authenticating and selecting the database as part
// of the dial so that bad credentials fail here rather than on first use.
func (d *RedisDialer) Dial(ctx context.Context, creds Credentials) (Conn, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	network := d.Network
	if network == "" {
		network = "tcp"
	}

	opts := []redis.DialOption{
		redis.DialDatabase(creds.Database),
		redis.DialUseTLS(creds.TLS),
		redis.DialTLSSkipVerify(creds.TLSSkipVerify),
	}
	if creds.Username != "" {
		opts = append(opts, redis.DialUsername(creds.Username))
	}
	if creds.Password != "" {
		opts = append(opts, redis.DialPassword(creds.Password))
	}
	if creds.DialTimeout > 0 {
		opts = append(opts, redis.DialConnectTimeout(creds.DialTimeout))
	}
	if creds.ReadTimeout > 0 {
		opts = append(opts, redis.DialReadTimeout(creds.ReadTimeout))
	}
	if creds.WriteTimeout > 0 {
		opts = append(opts, redis.DialWriteTimeout(creds.WriteTimeout))
	}

	c, err := redis.DialContext(ctx, network, creds.Addr(), opts...)
	if err != nil {
		return nil, err
	}
	return &redisConn{c: c}, nil
}

var _ Dialer = (*RedisDialer)(nil)

// redisConn adapts a redigo connection to Conn.
type redisConn struct {
	c      redis.Conn
	closed bool
}

func (r *redisConn) do(ctx context.Context, cmd string, args ...any) (any, error) {
	if r.closed {
		return nil, ErrClosed
	}
	return redis.DoContext(r.c, ctx, cmd, args...)
}

func (r *redisConn) Exists(ctx context.Context, key string) (bool, error) {
	n, err := redis.Int64(r.do(ctx, "EXISTS", key))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *redisConn) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := redis.String(r.do(ctx, "GET", key))
	if errors.Is(err, redis.ErrNil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *redisConn) TTL(ctx context.Context, key string) (int64, error) {
	return redis.Int64(r.do(ctx, "TTL", key))
}

func (r *redisConn) Expire(ctx context.Context, key string, seconds int64) (bool, error) {
	n, err := redis.Int64(r.do(ctx, "EXPIRE", key, seconds))
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *redisConn) Ping(ctx context.Context) error {
	s, err := redis.String(r.do(ctx, "PING"))
	if err != nil {
		return err
	}
	if s != "PONG" {
		return fmt.Errorf("%w: PING returned %q", ErrBadReply, s)
	}
	return nil
}

func (r *redisConn) Err() error {
	if r.closed {
		return ErrClosed
	}
	return r.c.Err()
}

func (r *redisConn) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.c.Close()
}

var _ Conn = (*redisConn)(nil)
