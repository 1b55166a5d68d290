package role

import (
	"errors"
	"strings"
)

// Router maps a role to its default landing route.
//
// Router instances are immutable after construction and safe for concurrent use.
type Router struct {
	routes   map[Role]string
	fallback string
}

// DefaultRoutes is the landing table used when no override is configured.
var DefaultRoutes = map[Role]string{
	Admin:   "/admin",
	User:    "/user",
	Manager: "/manager",
}

// DefaultFallback is the role whose landing route is used for unrecognised roles.
const DefaultFallback = Manager

// NewRouter builds a Router from routes. Every defined role must have an absolute route.
// Unrecognised roles resolve to the route of fallback.
func NewRouter(routes map[Role]string, fallback Role) (*Router, error) {
	table := make(map[Role]string, len(All))
	for _, r := range All {
		route, ok := routes[r]
		if !ok {
			return nil, errors.New("missing landing route for role " + r.String())
		}
		if !strings.HasPrefix(route, "/") {
			return nil, errors.New("landing route for role " + r.String() + " must be absolute")
		}
		table[r] = route
	}
	for r := range routes {
		if !r.Valid() {
			return nil, errors.New("landing route declared for undefined " + r.String())
		}
	}

	fb, ok := table[fallback]
	if !ok {
		return nil, errors.New("fallback must be a defined role")
	}

	return &Router{routes: table, fallback: fb}, nil
}

// DefaultRouter returns the router for [DefaultRoutes] and [DefaultFallback].
func DefaultRouter() *Router {
	r, err := NewRouter(DefaultRoutes, DefaultFallback)
	if err != nil {
		// The default table is static; failure here is a programmer error.
		panic(err)
	}
	return r
}

// LandingRouteFor returns the landing route for r. Undefined roles get the fallback
// route and never the admin area unless it was explicitly configured as fallback.
func (rt *Router) LandingRouteFor(r Role) string {
	if rt == nil {
		return DefaultRoutes[DefaultFallback]
	}
	if route, ok := rt.routes[r]; ok {
		return route
	}
	return rt.fallback
}

// Fallback returns the route used for unrecognised roles.
func (rt *Router) Fallback() string {
	if rt == nil {
		return DefaultRoutes[DefaultFallback]
	}
	return rt.fallback
}
