// Package renewal decides, for a batch of cache keys, which keys have a
// remaining TTL at or below a renewal threshold and extends those.
//
// Every key is classified into exactly one KeyState (Absent, Permanent,
// Expiring or Expired). Only Expiring keys whose remaining TTL is at or
// below Config.ThresholdSeconds are renewed. Each input item produces one
// Record routed to either Result.Renewed or Result.NotRenewed, preserving
// input order within each channel.
//
// A batch is all-or-nothing: the first configuration, connection, decode or
// store command failure aborts the batch, discards the partial result and
// surfaces an *Error. Engine.Run releases the batch's store connection on
// every exit path.
//
// Basic usage:
//
//	mgr := store.NewManager(store.NewRedisDialer())
//	eng := renewal.NewEngine()
//	res, err := eng.Run(ctx, mgr, creds, []renewal.Item{{
//	    Key:    "cache:user:123",
//	    Config: renewal.Config{RenewalTTL: 3600, RenewalThreshold: 30},
//	}})
package renewal
