// Package health reports whether the renewal service can reach its store.
//
// A Checker reports a Status: Healthy, Degraded, or Unhealthy. StoreChecker
// acquires a session through a store.Manager, pings it and releases it, the
// same lifecycle a renewal batch follows. Aggregator runs several checkers
// concurrently and folds them into one status.
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// registers /healthz (liveness, never touches the store), /readyz and /health
// (detailed JSON).
package health
