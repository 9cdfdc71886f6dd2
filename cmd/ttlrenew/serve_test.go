package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/ttlrenew/config"
	"github.com/jonwraymond/ttlrenew/observe"
	"github.com/jonwraymond/ttlrenew/renewal"
	"github.com/jonwraymond/ttlrenew/server"
	"github.com/jonwraymond/ttlrenew/store"
)

type flakyDialer struct {
	inner store.Dialer
	fail  int
	dials int
}

func (d *flakyDialer) Dial(ctx context.Context, creds store.Credentials) (store.Conn, error) {
	d.dials++
	if d.dials <= d.fail {
		return nil, errors.New("connection reset by peer")
	}
	return d.inner.Dial(ctx, creds)
}

func TestServeExecutor_RetriesTransientStoreFailures(t *testing.T) {
	t.Setenv("TTLRENEW_RETRY_INITIAL_DELAY", "1ms")
	cfg, err := config.Load(nil, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name     string
		fail     int
		wantCode int
		wantDial int
	}{
		{"recovers on second attempt", 1, http.StatusOK, 2},
		{"gives up after max attempts", 10, http.StatusBadGateway, cfg.Retry.MaxAttempts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := store.NewMemoryStore()
			mem.Set("session:1", "v", 100*time.Second)
			dialer := &flakyDialer{inner: mem.Dialer(), fail: tt.fail}

			var logs bytes.Buffer
			rt := &runtime{
				logger:  observe.NewLoggerWithWriter("warn", &logs),
				manager: store.NewManager(dialer),
				engine:  renewal.NewEngine(),
				creds:   store.DefaultCredentials(),
			}
			ctx := context.Background()
			srv, err := server.New(server.Options{
				Runner:   server.NewRunner(rt.engine, rt.manager, rt.creds, server.WithExecutor(rt.serveExecutor(ctx, cfg))),
				Defaults: cfg.Renewal,
			})
			if err != nil {
				t.Fatalf("server.New() error = %v", err)
			}

			req := httptest.NewRequest(http.MethodPost, "/v1/renew", strings.NewReader(`{"items":[{"key":"session:1"}]}`))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if dialer.dials != tt.wantDial {
				t.Fatalf("dials = %d, want %d", dialer.dials, tt.wantDial)
			}
			if !strings.Contains(logs.String(), "retrying renewal batch") {
				t.Fatalf("retry not logged: %s", logs.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var res renewal.Result
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(res.Renewed) != 1 {
				t.Fatalf("renewed = %v, want one record", res.Renewed)
			}
		})
	}
}
