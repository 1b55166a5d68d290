// Package role defines the canonical role enumeration shared with the backend identity
// source and the single lookup table that maps a role to its landing route.
//
// # Wire contract
//
// Role values are stable integers: Admin=1, User=2, Manager=3. They are embedded in signed
// session tokens and returned by the backend API, so they must not be renumbered.
//
// # What this package must NOT do
//
//   - Import goSession, token, or access (no upward imports).
//   - Perform I/O or keep mutable package state.
package role
