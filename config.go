package goSession

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/access"
	"github.com/MrEthical07/goSession/role"
)

// MinProductionSecretLength is the minimum HS256 key length accepted in production mode.
const MinProductionSecretLength = 32

// Config is the engine configuration. Build copies it; later changes by the caller have
// no effect on a built Engine.
type Config struct {
	Codec     CodecConfig
	Cookie    CookieConfig
	Session   SessionConfig
	Access    AccessConfig
	Roles     RolesConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
	Security  SecurityConfig
}

/*
====================================
CODEC CONFIG
====================================
*/

// CodecConfig holds the token signing settings.
type CodecConfig struct {
	// Secret is the HS256 signing key. Required; there is no default.
	Secret []byte
	Issuer string
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig holds the session cookie attributes.
type CookieConfig struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
	Path     string
	Domain   string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls refresh-on-read in the gate.
type SessionConfig struct {
	// SlidingRefresh re-mints the session on allowed gated requests.
	SlidingRefresh bool
	// RefreshMinAge skips the sliding refresh for tokens younger than this. Zero refreshes
	// on every allowed request once the token is at least a second old.
	RefreshMinAge time.Duration
}

/*
====================================
ACCESS CONFIG
====================================
*/

// AccessConfig holds the route classification used by the gate.
type AccessConfig struct {
	LoginPath         string
	ProtectedPrefixes []string
	PublicOnlyPaths   []string
	RoleRules         []access.RoleRule
	// RedirectStatus is 303 or 307.
	RedirectStatus int
}

// RolesConfig holds the landing-route table.
type RolesConfig struct {
	Routes   map[role.Role]string
	Fallback role.Role
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig controls the Redis-backed login throttle.
type RateLimitConfig struct {
	Enabled               bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	RedisPrefix           string
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// SecurityConfig holds deployment hardening switches.
type SecurityConfig struct {
	// ProductionMode forces secure cookies and enforces a minimum secret length.
	ProductionMode bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the default configuration without a secret. Callers must set
// Codec.Secret before Build.
func DefaultConfig() Config {
	return Config{
		Codec: CodecConfig{
			Issuer: "gosession",
		},
		Cookie: CookieConfig{
			Name:     "session",
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
			Path:     "/",
		},
		Session: SessionConfig{
			SlidingRefresh: true,
			RefreshMinAge:  time.Minute,
		},
		Access: AccessConfig{
			LoginPath:         access.DefaultLoginPath,
			ProtectedPrefixes: []string{"/admin", "/user", "/manager"},
			PublicOnlyPaths:   []string{"/login", "/register"},
			RoleRules: []access.RoleRule{
				{Prefix: "/admin", Roles: []role.Role{role.Admin}},
				{Prefix: "/user", Roles: []role.Role{role.User}},
				{Prefix: "/manager", Roles: []role.Role{role.Manager}},
			},
			RedirectStatus: http.StatusTemporaryRedirect,
		},
		Roles: RolesConfig{
			Routes:   cloneRoutes(role.DefaultRoutes),
			Fallback: role.DefaultFallback,
		},
		RateLimit: RateLimitConfig{
			Enabled:               false,
			EnableIPThrottle:      true,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
			RedisPrefix:           "gs",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Security: SecurityConfig{
			ProductionMode: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Codec.Secret = cloneBytes(cfg.Codec.Secret)
	out.Access.ProtectedPrefixes = cloneStrings(cfg.Access.ProtectedPrefixes)
	out.Access.PublicOnlyPaths = cloneStrings(cfg.Access.PublicOnlyPaths)
	if cfg.Access.RoleRules != nil {
		out.Access.RoleRules = make([]access.RoleRule, len(cfg.Access.RoleRules))
		for i, rule := range cfg.Access.RoleRules {
			out.Access.RoleRules[i] = access.RoleRule{
				Prefix: rule.Prefix,
				Roles:  append([]role.Role(nil), rule.Roles...),
			}
		}
	}
	out.Roles.Routes = cloneRoutes(cfg.Roles.Routes)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneRoutes(routes map[role.Role]string) map[role.Role]string {
	if routes == nil {
		return nil
	}
	out := make(map[role.Role]string, len(routes))
	for r, route := range routes {
		out[r] = route
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for consistency. Route tables are validated in
// depth by Build when the role router and access policy are constructed.
func (c *Config) Validate() error {
	// Codec
	if len(c.Codec.Secret) == 0 {
		return ErrSecretMissing
	}

	// Cookie
	if strings.TrimSpace(c.Cookie.Name) == "" {
		return errors.New("Cookie Name must not be empty")
	}
	if strings.ContainsAny(c.Cookie.Name, " \t\r\n;,=") {
		return errors.New("Cookie Name contains invalid characters")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=None requires Secure")
	}
	if c.Cookie.Path != "" && !strings.HasPrefix(c.Cookie.Path, "/") {
		return errors.New("Cookie Path must be absolute")
	}

	// Session
	if c.Session.RefreshMinAge < 0 {
		return errors.New("Session RefreshMinAge must be >= 0")
	}

	// Access
	switch c.Access.RedirectStatus {
	case http.StatusSeeOther, http.StatusTemporaryRedirect:
		// valid
	default:
		return errors.New("Access RedirectStatus must be 303 or 307")
	}

	// Roles
	if len(c.Roles.Routes) == 0 {
		return errors.New("Roles Routes must not be empty")
	}
	if !c.Roles.Fallback.Valid() {
		return errors.New("Roles Fallback must be a defined role")
	}

	// Rate limit
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxLoginAttempts <= 0 {
			return errors.New("RateLimit MaxLoginAttempts must be > 0")
		}
		if c.RateLimit.LoginCooldownDuration <= 0 {
			return errors.New("RateLimit LoginCooldownDuration must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	if c.Security.ProductionMode {
		if len(c.Codec.Secret) < MinProductionSecretLength {
			return ErrSecretTooShort
		}
		if !c.Cookie.Secure {
			return errors.New("ProductionMode requires Cookie Secure")
		}
	}

	return nil
}
