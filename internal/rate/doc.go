// Package rate implements the Redis-backed login throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys are namespaced by
// the configured prefix:
//   - <prefix>:al:<identifier>  failed logins per identifier
//   - <prefix>:ali:<ip>         failed logins per client IP
//
// # What this package must NOT do
//
//   - Decide login outcomes; the engine maps limiter errors to its own sentinels.
//   - Be imported outside the goSession module.
package rate
