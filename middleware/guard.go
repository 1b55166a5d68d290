package middleware

import (
	"context"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/access"
	"github.com/MrEthical07/goSession/cookie"
	"github.com/MrEthical07/goSession/token"
)

type sessionContextKey struct{}

// SessionFromContext returns the session stored by a gate, or nil and false.
func SessionFromContext(ctx context.Context) (*token.Payload, bool) {
	p, ok := ctx.Value(sessionContextKey{}).(*token.Payload)
	return p, ok && p != nil
}

func withSession(ctx context.Context, p *token.Payload) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, p)
}

// Gate returns middleware that runs engine.Authorize for every request path.
//
// Redirects use engine.RedirectStatus. Deny answers 403 with a uniform body. On Allow the
// session, if any, is refreshed when due and attached to the request context before next
// runs. The response writer is tracked so cookie writes after commit are detected.
func Gate(engine *goSession.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			tw := cookie.Track(w)
			ctx := goSession.RequestContext(r)
			jar := cookie.NewResponseJar(tw, r)

			d, session := engine.Authorize(ctx, jar, r.URL.Path)
			switch d.Outcome {
			case access.RedirectLogin, access.RedirectHome, access.RedirectRole:
				http.Redirect(tw, r, d.Location, engine.RedirectStatus())
				return
			case access.Deny:
				http.Error(tw, "forbidden", http.StatusForbidden)
				return
			}

			if session != nil {
				if refreshed, err := engine.RefreshIfDue(ctx, jar, session); err == nil {
					session = refreshed
				}
			}

			next.ServeHTTP(tw, r.WithContext(withSession(ctx, session)))
		})
	}
}
