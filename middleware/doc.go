// Package middleware adapts goSession.Engine to net/http.
//
// # Gates
//
//   - [Gate] evaluates the engine's access policy for every request, executes the
//     redirect or 403 it decides, performs the sliding refresh, and stores the session
//     in the request context.
//   - [RequireRoles] gates a single route on a role set.
//   - [RequireSession] rejects API requests without a session with 401.
//
// Handlers behind a gate read the session with [SessionFromContext].
//
// # Ambient
//
//   - [RequestID] assigns or propagates the X-Request-Id header.
//   - [Logging] writes one zap entry per request.
//
// This package translates HTTP semantics into Engine calls. It never parses tokens or
// reads cookies itself.
package middleware
