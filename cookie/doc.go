// Package cookie carries the signed session token between the browser and the server.
//
// A [Store] writes, reads and clears the session cookie through a [Jar]. The HTTP
// implementation, [ResponseJar], refuses writes once the response headers are committed
// and reports [ErrResponseCommitted] instead of silently dropping the Set-Cookie header.
//
// # What this package must NOT do
//
//   - Decode, verify, or sign tokens. Values are opaque strings here.
//   - Decide whether a request is authorized.
package cookie
