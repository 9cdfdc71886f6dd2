package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/ttlrenew/store"
)

func TestStoreChecker_Healthy(t *testing.T) {
	mem := store.NewMemoryStore()
	mgr := store.NewManager(mem.Dialer())

	result := NewStoreChecker(mgr, store.DefaultCredentials(), time.Second).Check(context.Background())
	if result.Status != StatusHealthy {
		t.Fatalf("Status = %v, want healthy (%v)", result.Status, result.Error)
	}
	if result.Details["addr"] != "localhost:6379" {
		t.Fatalf("addr detail = %v", result.Details["addr"])
	}
}

func TestStoreChecker_Unreachable(t *testing.T) {
	dialErr := errors.New("connection refused")
	mgr := store.NewManager(store.DialerFunc(func(context.Context, store.Credentials) (store.Conn, error) {
		return nil, dialErr
	}))

	result := NewStoreChecker(mgr, store.DefaultCredentials(), 0).Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Fatalf("Status = %v, want unhealthy", result.Status)
	}
	if !errors.Is(result.Error, store.ErrConnect) {
		t.Fatalf("expected ErrConnect, got %v", result.Error)
	}
}

func TestStoreChecker_BadPassword(t *testing.T) {
	mem := store.NewMemoryStore(store.WithPassword("right"))
	creds := store.DefaultCredentials()
	creds.Password = "wrong"

	result := NewStoreChecker(store.NewManager(mem.Dialer()), creds, 0).Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Fatalf("Status = %v, want unhealthy", result.Status)
	}
}
