// Package goSession provides a stateless, cookie-carried session layer for server-rendered
// web frontends: HS256-signed session tokens with a fixed seven-day window, a cookie
// store, and a role-aware access gate.
//
// An [Engine] is assembled once through [Builder.Build] and is safe for concurrent use.
// No session state is kept on the server; every request is verified from its cookie.
//
// # Architecture boundaries
//
// goSession is the lifecycle surface: [Engine.Create], [Engine.Current], [Engine.Refresh],
// [Engine.Destroy], [Engine.Login] and [Engine.Authorize]. Token encoding lives in
// package token, cookie transport in package cookie, the pure access decision in package
// access and landing routes in package role. HTTP wiring lives in middleware and httpapi.
//
// # Failure model
//
// Verification failures are tagged ([token.Result]) inside the engine and collapse to
// "no session" at [Engine.Current]. The reason is logged, counted and audited; it is
// never written to a client.
//
// # What this package must NOT do
//
//   - Hold the signing secret outside the token.Codec built for the Engine.
//   - Start with a missing secret. Build fails with ErrSecretMissing.
//   - Store sessions server-side. Redis is used only by the optional login throttle.
package goSession
