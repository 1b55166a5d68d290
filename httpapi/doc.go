// Package httpapi serves the session introspection and login endpoints of a
// goSession.Engine:
//
//	GET  /api/session       current session view, or JSON null
//	POST /api/auth/login    {email,password} -> {user,redirect}
//	POST /api/auth/logout   clear the session
//	POST /api/auth/refresh  re-mint the session, or JSON null
//
// Error bodies are uniform; verification failures never reach clients.
package httpapi
