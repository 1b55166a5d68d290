package goSession

import (
	"context"
	"net"
	"net/http"
)

type clientIPContextKey struct{}
type userAgentContextKey struct{}
type requestIDContextKey struct{}
type requestPathContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine uses it for the
// per-IP login throttle and audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithUserAgent attaches the HTTP User-Agent string to ctx for audit events.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

// WithRequestID attaches a request correlation ID to ctx. It is added to engine logs
// and audit events.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext returns the request ID set by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, requestIDContextKey{})
}

// WithRequestPath attaches the request path to ctx so verification failures can be
// logged with the path they happened on.
func WithRequestPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, requestPathContextKey{}, path)
}

// RequestContext returns r's context carrying the client IP, user agent and path of r.
// The client IP is the host part of r.RemoteAddr; forwarding headers are not trusted.
func RequestContext(r *http.Request) context.Context {
	ctx := r.Context()
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	ctx = WithClientIP(ctx, ip)
	ctx = WithUserAgent(ctx, r.UserAgent())
	return WithRequestPath(ctx, r.URL.Path)
}

func clientIPFromContext(ctx context.Context) string {
	return stringFromContext(ctx, clientIPContextKey{})
}

func userAgentFromContext(ctx context.Context) string {
	return stringFromContext(ctx, userAgentContextKey{})
}

func requestPathFromContext(ctx context.Context) string {
	return stringFromContext(ctx, requestPathContextKey{})
}

func stringFromContext(ctx context.Context, key any) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
