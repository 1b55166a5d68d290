// Package backend implements goSession.IdentityProvider against the REST backend API.
//
// The login contract is
//
//	POST {BaseURL}/auth/login  {"email":"...","password":"..."}
//	200 {"userId":"...","email":"...","name":"...","role":1,"identityId":"..."}
//	401 or 403 for rejected credentials
//
// Any other outcome is reported as an availability failure.
package backend
