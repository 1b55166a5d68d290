// Package access decides what happens to a navigation request given its path and the
// verified session, if any.
//
// [Policy.Decide] is a pure function of its inputs and the immutable policy. Rules are
// evaluated in a fixed order and the first one that applies wins:
//
//  1. Protected or role-gated path without a session: redirect to the login path.
//  2. Public-only path (login, signup) with a session: redirect to the role's landing route.
//  3. Role-gated path whose role set excludes the session role: redirect to the role's
//     landing route, or deny outright when that route is itself closed to the role.
//  4. Anything else is allowed.
//
// Paths are cleaned with path.Clean and matched by whole segments, so "/admin" covers
// "/admin" and "/admin/users" but never "/administrator".
//
// # What this package must NOT do
//
//   - Read cookies or verify tokens. The caller passes an already verified payload.
//   - Write HTTP responses.
package access
