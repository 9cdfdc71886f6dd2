package health

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// RegisterHandlers mounts the probe endpoints on mux:
//
//	GET /healthz  liveness, never touches the store
//	GET /readyz   plain-text overall status
//	GET /health   JSON report of every checker
func RegisterHandlers(mux *http.ServeMux, agg *Aggregator) {
	mux.HandleFunc("GET /healthz", LivenessHandler())
	mux.HandleFunc("GET /readyz", ReadinessHandler(agg))
	mux.HandleFunc("GET /health", DetailedHandler(agg))
}

// LivenessHandler answers 200 OK while the process is serving.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "OK")
	}
}

// ReadinessHandler answers 200 while the overall status is Ready and 503
// otherwise. The body is OK, DEGRADED or UNHEALTHY.
func ReadinessHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := Overall(agg.CheckAll(r.Context()))
		body := strings.ToUpper(status.String())
		if status == StatusHealthy {
			body = "OK"
		}
		writeText(w, httpStatus(status), body)
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Checks    map[string]CheckResponse `json:"checks,omitempty"`
}

// CheckResponse reports one checker.
type CheckResponse struct {
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// DetailedHandler serves a HealthResponse with the readiness status code.
func DetailedHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := agg.CheckAll(r.Context())
		status := Overall(results)

		checks := make(map[string]CheckResponse, len(results))
		for name, res := range results {
			cr := CheckResponse{
				Status:   res.Status.String(),
				Message:  res.Message,
				Duration: res.Duration.String(),
				Details:  res.Details,
			}
			if res.Error != nil {
				cr.Error = res.Error.Error()
			}
			checks[name] = cr
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(httpStatus(status))
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status:    status.String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    checks,
		})
	}
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}

func httpStatus(s Status) int {
	if s.Ready() {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}
