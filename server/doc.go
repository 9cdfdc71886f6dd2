// Package server exposes renewal batches over HTTP.
//
// Routes:
//
//	POST /v1/renew   run one batch, body is a renewal.Batch
//	GET  /healthz    liveness
//	GET  /readyz     store readiness (acquire, ping, release)
//	GET  /health     detailed health JSON
//	GET  /metrics    Prometheus exposition, when a metrics handler is set
//
// Runner is shared with the CLI: it resolves a batch, runs it under the
// resilience executor and records telemetry for it.
package server
