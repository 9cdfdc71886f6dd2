// Package observe provides observability primitives for renewal batches.
//
// It is a pure instrumentation library: an Observer owns the OpenTelemetry
// tracer and meter providers, a JSON structured Logger, and the Metrics and
// Middleware types that the renewal engine and the HTTP surface record into.
// It performs no I/O beyond exporter setup and log writes.
package observe
