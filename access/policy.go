package access

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/MrEthical07/goSession/role"
	"github.com/MrEthical07/goSession/token"
)

// DefaultLoginPath is where unauthenticated navigation is sent.
const DefaultLoginPath = "/login"

var (
	// ErrInvalidPolicy is returned by NewPolicy for inconsistent configuration.
	ErrInvalidPolicy = errors.New("invalid access policy")
)

// Outcome is the action a Decision asks the caller to take.
type Outcome uint8

const (
	// Allow lets the request through.
	Allow Outcome = iota
	// RedirectLogin sends an unauthenticated user to the login path.
	RedirectLogin
	// RedirectHome sends an authenticated user away from a public-only path.
	RedirectHome
	// RedirectRole sends a user to their own landing route from an area their role may not enter.
	RedirectRole
	// Deny refuses the request when redirecting would loop or the landing route is closed
	// to the session's role.
	Deny
)

// String returns a stable, log-friendly name.
func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	case RedirectRole:
		return "redirect_role"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating one request.
type Decision struct {
	Outcome Outcome
	// Location is the redirect target for the redirect outcomes.
	Location string
	// Path is the cleaned request path the decision was made for.
	Path string
	// Rule is the prefix that produced the decision, empty for Allow without a match.
	Rule string
}

// IsRedirect reports whether the caller should redirect to Location.
func (d Decision) IsRedirect() bool {
	switch d.Outcome {
	case RedirectLogin, RedirectHome, RedirectRole:
		return true
	default:
		return false
	}
}

// RoleRule restricts a path namespace to a set of roles.
type RoleRule struct {
	Prefix string
	Roles  []role.Role
}

// Config holds the deployment-specific route sets.
type Config struct {
	LoginPath         string
	ProtectedPrefixes []string
	PublicOnlyPaths   []string
	RoleRules         []RoleRule
	// Router resolves landing routes. Defaults to role.DefaultRouter().
	Router *role.Router
}

// Policy is an immutable, concurrency-safe access policy.
type Policy struct {
	loginPath  string
	protected  []string
	publicOnly []string
	roleRules  []RoleRule
	router     *role.Router
}

// NewPolicy validates cfg and returns a Policy holding private copies of its route sets.
func NewPolicy(cfg Config) (*Policy, error) {
	p := &Policy{
		loginPath: CleanPath(cfg.LoginPath),
		router:    cfg.Router,
	}
	if strings.TrimSpace(cfg.LoginPath) == "" {
		p.loginPath = DefaultLoginPath
	}
	if p.router == nil {
		p.router = role.DefaultRouter()
	}

	var err error
	if p.protected, err = cleanPrefixes("protected prefix", cfg.ProtectedPrefixes); err != nil {
		return nil, err
	}
	if p.publicOnly, err = cleanPrefixes("public-only path", cfg.PublicOnlyPaths); err != nil {
		return nil, err
	}

	p.roleRules = make([]RoleRule, 0, len(cfg.RoleRules))
	for _, rule := range cfg.RoleRules {
		prefix, err := cleanPrefix("role rule prefix", rule.Prefix)
		if err != nil {
			return nil, err
		}
		if len(rule.Roles) == 0 {
			return nil, fmt.Errorf("%w: role rule %s allows no roles", ErrInvalidPolicy, prefix)
		}
		roles := make([]role.Role, 0, len(rule.Roles))
		for _, r := range rule.Roles {
			if !r.Valid() {
				return nil, fmt.Errorf("%w: role rule %s names undefined %s", ErrInvalidPolicy, prefix, r)
			}
			roles = append(roles, r)
		}
		p.roleRules = append(p.roleRules, RoleRule{Prefix: prefix, Roles: roles})
	}

	if p.requiresSession(p.loginPath) {
		return nil, fmt.Errorf("%w: login path %s is protected", ErrInvalidPolicy, p.loginPath)
	}

	return p, nil
}

// LoginPath returns the cleaned login path.
func (p *Policy) LoginPath() string {
	return p.loginPath
}

// Router returns the landing-route table the policy redirects with.
func (p *Policy) Router() *role.Router {
	return p.router
}

// Decide evaluates the request path against the policy. session is nil when the request
// carries no valid session.
func (p *Policy) Decide(requestPath string, session *token.Payload) Decision {
	cleaned := CleanPath(requestPath)
	gate, gated := p.roleRuleFor(cleaned)

	if session == nil {
		if gated {
			return Decision{Outcome: RedirectLogin, Location: p.loginPath, Path: cleaned, Rule: gate.Prefix}
		}
		if prefix, ok := longestMatch(p.protected, cleaned); ok {
			return Decision{Outcome: RedirectLogin, Location: p.loginPath, Path: cleaned, Rule: prefix}
		}
		return Decision{Outcome: Allow, Path: cleaned}
	}

	if prefix, ok := longestMatch(p.publicOnly, cleaned); ok {
		home := p.router.LandingRouteFor(session.Role)
		if Match(prefix, home) || !p.permits(home, session.Role) {
			return Decision{Outcome: Deny, Path: cleaned, Rule: prefix}
		}
		return Decision{Outcome: RedirectHome, Location: home, Path: cleaned, Rule: prefix}
	}

	if gated && !session.Role.In(gate.Roles) {
		home := p.router.LandingRouteFor(session.Role)
		if Match(gate.Prefix, home) || !p.permits(home, session.Role) {
			return Decision{Outcome: Deny, Path: cleaned, Rule: gate.Prefix}
		}
		return Decision{Outcome: RedirectRole, Location: home, Path: cleaned, Rule: gate.Prefix}
	}

	return Decision{Outcome: Allow, Path: cleaned, Rule: gate.Prefix}
}

// Match reports whether requestPath lies in the namespace of prefix, by whole segments.
func Match(prefix, requestPath string) bool {
	if prefix == "/" {
		return true
	}
	return requestPath == prefix || strings.HasPrefix(requestPath, prefix+"/")
}

func (p *Policy) requiresSession(cleaned string) bool {
	if _, ok := p.roleRuleFor(cleaned); ok {
		return true
	}
	_, ok := longestMatch(p.protected, cleaned)
	return ok
}

// roleRuleFor returns the most specific role rule covering cleaned.
func (p *Policy) roleRuleFor(cleaned string) (RoleRule, bool) {
	var (
		best  RoleRule
		found bool
	)
	for _, rule := range p.roleRules {
		if Match(rule.Prefix, cleaned) && (!found || len(rule.Prefix) > len(best.Prefix)) {
			best, found = rule, true
		}
	}
	return best, found
}

// permits reports whether r could enter target without another role redirect.
func (p *Policy) permits(target string, r role.Role) bool {
	rule, ok := p.roleRuleFor(CleanPath(target))
	return !ok || r.In(rule.Roles)
}

func longestMatch(prefixes []string, cleaned string) (string, bool) {
	best, found := "", false
	for _, prefix := range prefixes {
		if Match(prefix, cleaned) && (!found || len(prefix) > len(best)) {
			best, found = prefix, true
		}
	}
	return best, found
}

// CleanPath normalizes a request path the way Decide does before matching: leading slash
// added, dot segments and repeated slashes collapsed.
func CleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func cleanPrefix(kind, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "/") {
		return "", fmt.Errorf("%w: %s %q must be absolute", ErrInvalidPolicy, kind, raw)
	}
	return path.Clean(raw), nil
}

func cleanPrefixes(kind string, raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		cleaned, err := cleanPrefix(kind, r)
		if err != nil {
			return nil, err
		}
		out = append(out, cleaned)
	}
	return out, nil
}
