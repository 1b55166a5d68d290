package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/access"
	"github.com/MrEthical07/goSession/cookie"
	"github.com/MrEthical07/goSession/role"
	"github.com/MrEthical07/goSession/token"
)

// RequireRoles returns middleware admitting only sessions whose role is in roles.
//
// Without a session the request is redirected to the login path. A session with another
// role is redirected to its landing route, or answered with 403 when that route is the
// current one. The session attached by an outer Gate is reused when present.
func RequireRoles(engine *goSession.Engine, roles ...role.Role) func(http.Handler) http.Handler {
	allowed := append([]role.Role(nil), roles...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			session, ok := SessionFromContext(r.Context())
			if !ok {
				session = currentSession(engine, w, r)
			}

			if session == nil {
				http.Redirect(w, r, engine.LoginPath(), engine.RedirectStatus())
				return
			}
			if !session.Role.In(allowed) {
				landing := engine.LandingRouteFor(session.Role)
				if access.Match(landing, access.CleanPath(r.URL.Path)) {
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
				http.Redirect(w, r, landing, engine.RedirectStatus())
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
		})
	}
}

func currentSession(engine *goSession.Engine, w http.ResponseWriter, r *http.Request) *token.Payload {
	p, ok := engine.Current(goSession.RequestContext(r), cookie.NewResponseJar(w, r))
	if !ok {
		return nil
	}
	return p
}
