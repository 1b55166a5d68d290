package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/cookie"
)

// Logging returns middleware that logs each request at info level.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			tw := cookie.Track(w)
			next.ServeHTTP(tw, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote", r.RemoteAddr),
				zap.Int("status", tw.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.Int("size", tw.Size()),
				zap.String("request_id", goSession.RequestIDFromContext(r.Context())),
			)
		})
	}
}
