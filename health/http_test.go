package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func serve(agg *Aggregator, path string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	RegisterHandlers(mux, agg)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLivenessHandler(t *testing.T) {
	agg := NewAggregator(time.Second)
	agg.Register(fixed("store", StatusUnhealthy))

	rec := serve(agg, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("liveness = %d %q", rec.Code, rec.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		status Status
		code   int
		body   string
	}{
		{StatusHealthy, http.StatusOK, "OK"},
		{StatusDegraded, http.StatusOK, "DEGRADED"},
		{StatusUnhealthy, http.StatusServiceUnavailable, "UNHEALTHY"},
	}
	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			agg := NewAggregator(time.Second)
			agg.Register(fixed("store", tt.status))

			rec := serve(agg, "/readyz")
			if rec.Code != tt.code || rec.Body.String() != tt.body {
				t.Fatalf("readiness = %d %q, want %d %q", rec.Code, rec.Body.String(), tt.code, tt.body)
			}
		})
	}
}

func TestDetailedHandler(t *testing.T) {
	agg := NewAggregator(time.Second)
	agg.Register(fixed("store", StatusDegraded))

	rec := serve(agg, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "degraded" || resp.Checks["store"].Status != "degraded" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
