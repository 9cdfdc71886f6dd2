package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTimeout_Exceeded(t *testing.T) {
	to := NewTimeout(10 * time.Millisecond)

	returned := false
	err := to.Execute(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		returned = true
		return ctx.Err()
	})
	if !errors.Is(err, ErrTimeout) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Execute() error = %v, want ErrTimeout joined with deadline", err)
	}
	if !returned {
		t.Fatalf("Execute returned before op finished")
	}
}

func TestTimeout_PassesThrough(t *testing.T) {
	to := NewTimeout(time.Second)

	if err := to.Execute(context.Background(), succeed); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if err := to.Execute(context.Background(), fail); !errors.Is(err, errTransient) || errors.Is(err, ErrTimeout) {
		t.Fatalf("Execute() error = %v, want errTransient only", err)
	}
}

func TestNewTimeout_Default(t *testing.T) {
	if d := NewTimeout(0).Duration(); d != 30*time.Second {
		t.Fatalf("Duration() = %v, want 30s", d)
	}
}
