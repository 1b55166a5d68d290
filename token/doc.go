// Package token mints and verifies the signed, expiring session credential carried in the
// session cookie.
//
// # Format
//
// Tokens are compact HS256 JWS strings produced with golang-jwt. The signature covers the
// encoded header and payload exactly; segments are decoded strictly so that no bit of the
// token can change without failing verification.
//
// # Failure reporting
//
// [Codec.Verify] returns a tagged [Result]. Each rejection reason is a distinct [Status] so
// callers can log and count it, but only [Result.OK] may cross a trust boundary.
//
// # What this package must NOT do
//
//   - Read or write cookies, or touch net/http.
//   - Keep package-level key material; the secret lives inside a [Codec].
package token
