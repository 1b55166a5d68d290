package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// RequireSession returns middleware for API routes: requests without a valid session get
// 401 with a JSON error body instead of a redirect.
func RequireSession(engine *goSession.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok && engine != nil {
				session = currentSession(engine, w, r)
			}
			if session == nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
		})
	}
}
