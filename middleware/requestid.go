package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	goSession "github.com/MrEthical07/goSession"
)

// RequestIDHeader carries the request correlation ID.
const RequestIDHeader = "X-Request-Id"

// RequestID propagates an incoming X-Request-Id or assigns a new UUID, echoes it on the
// response and stores it with goSession.WithRequestID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(goSession.WithRequestID(r.Context(), id)))
	})
}
