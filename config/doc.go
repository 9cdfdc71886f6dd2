// Package config loads ttlrenew settings from defaults, an optional YAML or
// JSON file, TTLRENEW_* environment variables and bound command-line flags,
// in increasing order of precedence.
//
//	store:
//	  host: redis.internal
//	  password: secretref:file:redis-password
//	renewal:
//	  renewal_ttl: 3600
//	  renewal_threshold: 20
//	server:
//	  addr: ":8080"
//
// Nested keys map to environment variables with "." replaced by "_", so
// store.host is TTLRENEW_STORE_HOST.
package config
