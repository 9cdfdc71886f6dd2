// Package store is the key-value store client used by the renewal engine.
//
// It defines the Conn contract (existence check, value read, TTL read,
// expire), two implementations of it (a Redis client built on redigo and an
// in-process MemoryStore with identical TTL semantics), and the Manager that
// owns a connection's acquire/use/release lifecycle for one batch.
//
// TTL replies follow the Redis convention: a positive number of seconds,
// NoExpiry (-1) for keys without an expiration, and Missing (-2) for keys
// that do not exist.
package store
