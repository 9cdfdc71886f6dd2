package store

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func miniredisCreds(t *testing.T, mr *miniredis.Miniredis) Credentials {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	if err != nil {
		t.Fatal(err)
	}
	creds := DefaultCredentials()
	creds.Host = mr.Host()
	creds.Port = port
	return creds
}

func TestRedisConn_Commands(t *testing.T) {
	mr := miniredis.RunT(t)
	_ = mr.Set("expiring", "v1")
	mr.SetTTL("expiring", 100*time.Second)
	_ = mr.Set("forever", "v2")

	ctx := context.Background()
	conn, err := NewRedisDialer().Dial(ctx, miniredisCreds(t, mr))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	ttls := map[string]int64{"expiring": 100, "forever": NoExpiry, "absent": Missing}
	for key, want := range ttls {
		got, err := conn.TTL(ctx, key)
		if err != nil || got != want {
			t.Fatalf("TTL(%q) = %d, %v; want %d", key, got, err, want)
		}
	}

	if ok, err := conn.Exists(ctx, "forever"); err != nil || !ok {
		t.Fatalf("Exists(forever) = %v, %v", ok, err)
	}
	if ok, err := conn.Exists(ctx, "absent"); err != nil || ok {
		t.Fatalf("Exists(absent) = %v, %v", ok, err)
	}

	if v, ok, err := conn.Get(ctx, "expiring"); err != nil || !ok || v != "v1" {
		t.Fatalf("Get(expiring) = %q, %v, %v", v, ok, err)
	}
	if _, ok, err := conn.Get(ctx, "absent"); err != nil || ok {
		t.Fatalf("Get(absent) ok = %v, err = %v", ok, err)
	}

	if ok, err := conn.Expire(ctx, "expiring", 3600); err != nil || !ok {
		t.Fatalf("Expire(expiring) = %v, %v", ok, err)
	}
	if got := mr.TTL("expiring"); got != time.Hour {
		t.Fatalf("server TTL = %v, want 1h", got)
	}
	if ok, err := conn.Expire(ctx, "absent", 3600); err != nil || ok {
		t.Fatalf("Expire(absent) = %v, %v; want false", ok, err)
	}
}

func TestRedisConn_WrongType(t *testing.T) {
	mr := miniredis.RunT(t)
	_, _ = mr.Lpush("list", "x")

	ctx := context.Background()
	conn, err := NewRedisDialer().Dial(ctx, miniredisCreds(t, mr))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if _, _, err := conn.Get(ctx, "list"); err == nil {
		t.Fatalf("Get on a list should fail")
	}
	if !IsReady(conn) {
		t.Fatalf("a command error must not poison the session: %v", conn.Err())
	}
}

func TestRedisDialer_Auth(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("s3cret")
	creds := miniredisCreds(t, mr)
	ctx := context.Background()

	if _, err := NewRedisDialer().Dial(ctx, creds); err == nil {
		t.Fatalf("Dial without password should fail")
	}

	creds.Password = "s3cret"
	conn, err := NewRedisDialer().Dial(ctx, creds)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	_ = conn.Close()
}

func TestRedisDialer_Database(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.Select(2)
	_ = mr.Set("k", "v")

	creds := miniredisCreds(t, mr)
	creds.Database = 2
	ctx := context.Background()

	conn, err := NewRedisDialer().Dial(ctx, creds)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if ok, _ := conn.Exists(ctx, "k"); !ok {
		t.Fatalf("key in db 2 not visible")
	}
}

func TestRedisConn_Close(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	conn, err := NewRedisDialer().Dial(ctx, miniredisCreds(t, mr))
	if err != nil {
		t.Fatal(err)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if _, err := conn.TTL(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Fatalf("TTL after Close error = %v, want ErrClosed", err)
	}
	if IsReady(conn) {
		t.Fatalf("closed conn reports ready")
	}
}

func TestRedisDialer_InvalidCredentials(t *testing.T) {
	_, err := NewRedisDialer().Dial(context.Background(), Credentials{})
	if !errors.Is(err, ErrEmptyHost) {
		t.Fatalf("Dial() error = %v, want ErrEmptyHost", err)
	}
}
