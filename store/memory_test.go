package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedStore(t *testing.T, opts ...MemoryOption) (*MemoryStore, *fakeClock, Conn) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := NewMemoryStore(append([]MemoryOption{WithClock(clock.Now)}, opts...)...)
	conn, err := s.Dialer().Dial(context.Background(), DefaultCredentials())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	return s, clock, conn
}

func TestMemoryStore_TTL(t *testing.T) {
	s, clock, conn := newClockedStore(t)
	ctx := context.Background()

	s.Set("expiring", "v", 100*time.Second)
	s.SetPersistent("forever", "v")

	tests := []struct {
		key  string
		want int64
	}{
		{"expiring", 100},
		{"forever", NoExpiry},
		{"absent", Missing},
	}
	for _, tt := range tests {
		got, err := conn.TTL(ctx, tt.key)
		if err != nil || got != tt.want {
			t.Fatalf("TTL(%q) = %d, %v; want %d", tt.key, got, err, tt.want)
		}
	}

	clock.Advance(40*time.Second + 400*time.Millisecond)
	if got, _ := conn.TTL(ctx, "expiring"); got != 60 {
		t.Fatalf("TTL after 40.4s = %d, want 60", got)
	}

	clock.Advance(60 * time.Second)
	if ok, _ := conn.Exists(ctx, "expiring"); ok {
		t.Fatalf("expired key still exists")
	}
	if got, _ := conn.TTL(ctx, "expiring"); got != Missing {
		t.Fatalf("TTL of expired key = %d, want %d", got, Missing)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}

func TestMemoryStore_Expire(t *testing.T) {
	s, _, conn := newClockedStore(t)
	ctx := context.Background()
	s.Set("k", "v", 10*time.Second)

	ok, err := conn.Expire(ctx, "k", 3600)
	if err != nil || !ok {
		t.Fatalf("Expire(k) = %v, %v", ok, err)
	}
	if got, _ := conn.TTL(ctx, "k"); got != 3600 {
		t.Fatalf("TTL after Expire = %d, want 3600", got)
	}

	ok, err = conn.Expire(ctx, "missing", 3600)
	if err != nil || ok {
		t.Fatalf("Expire(missing) = %v, %v; want false", ok, err)
	}

	s.SetPersistent("p", "v")
	if ok, _ := conn.Expire(ctx, "p", 60); !ok {
		t.Fatalf("Expire on persistent key should succeed")
	}
	if got, _ := conn.TTL(ctx, "p"); got != 60 {
		t.Fatalf("TTL = %d, want 60", got)
	}
}

func TestMemoryStore_Get(t *testing.T) {
	s, _, conn := newClockedStore(t)
	ctx := context.Background()
	s.Set("k", `{"a":1}`, time.Minute)

	v, ok, err := conn.Get(ctx, "k")
	if err != nil || !ok || v != `{"a":1}` {
		t.Fatalf("Get(k) = %q, %v, %v", v, ok, err)
	}
	_, ok, err = conn.Get(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("Get(missing) ok = %v, err = %v", ok, err)
	}

	s.Delete("k")
	s.Delete("k")
	if _, ok, _ := conn.Get(ctx, "k"); ok {
		t.Fatalf("deleted key still readable")
	}
}

func TestMemoryConn_Closed(t *testing.T) {
	_, _, conn := newClockedStore(t)
	ctx := context.Background()

	if !IsReady(conn) {
		t.Fatalf("new conn not ready")
	}
	if err := conn.Close(); err != nil {
		t.Fatal(err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if IsReady(conn) {
		t.Fatalf("closed conn reports ready")
	}
	if _, err := conn.Exists(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Exists on closed conn error = %v, want ErrClosed", err)
	}
}

func TestMemoryStore_Password(t *testing.T) {
	s := NewMemoryStore(WithPassword("pw"))

	if _, err := s.Dialer().Dial(context.Background(), DefaultCredentials()); !errors.Is(err, ErrAuth) {
		t.Fatalf("Dial without password error = %v, want ErrAuth", err)
	}
	creds := DefaultCredentials()
	creds.Password = "pw"
	if _, err := s.Dialer().Dial(context.Background(), creds); err != nil {
		t.Fatalf("Dial with password error = %v", err)
	}
}

func TestCredentials(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		addr    string
		wantErr bool
	}{
		{"defaults", DefaultCredentials(), "localhost:6379", false},
		{"no port", Credentials{Host: "redis"}, "redis:6379", false},
		{"ipv6", Credentials{Host: "::1", Port: 6380}, "[::1]:6380", false},
		{"no host", Credentials{Port: 6379}, ":6379", true},
		{"bad port", Credentials{Host: "h", Port: 70000}, "h:70000", true},
		{"bad db", Credentials{Host: "h", Database: -1}, "h:6379", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.creds.Addr(); got != tt.addr {
				t.Fatalf("Addr() = %q, want %q", got, tt.addr)
			}
			if err := tt.creds.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
