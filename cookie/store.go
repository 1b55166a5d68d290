package cookie

import (
	"net/http"
	"strings"
	"time"
)

// DefaultName is the session cookie name.
const DefaultName = "session"

// Config describes the session cookie attributes. Zero fields take defaults in NewStore.
type Config struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
	Path     string
	Domain   string
}

// Store writes and reads the session cookie. It is a value type and safe to share.
type Store struct {
	name     string
	secure   bool
	sameSite http.SameSite
	path     string
	domain   string
}

// NewStore applies defaults: name "session", SameSite=Lax, Path "/".
func NewStore(cfg Config) Store {
	s := Store{
		name:     strings.TrimSpace(cfg.Name),
		secure:   cfg.Secure,
		sameSite: cfg.SameSite,
		path:     strings.TrimSpace(cfg.Path),
		domain:   strings.TrimSpace(cfg.Domain),
	}
	if s.name == "" {
		s.name = DefaultName
	}
	if s.sameSite == 0 {
		s.sameSite = http.SameSiteLaxMode
	}
	if s.path == "" {
		s.path = "/"
	}
	return s
}

// Name returns the cookie name.
func (s Store) Name() string {
	return s.name
}

// Write sets the session cookie to token, expiring at expiresAt.
func (s Store) Write(jar Jar, token string, expiresAt time.Time) error {
	if token == "" {
		return ErrEmptyToken
	}
	return jar.SetCookie(s.cookie(token, expiresAt, 0))
}

// Read returns the raw session token. An empty or missing cookie reports false.
func (s Store) Read(jar Jar) (string, bool) {
	c, err := jar.Cookie(s.name)
	if err != nil || c == nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Clear sets an empty, already-expired session cookie. Clearing an absent cookie is not an error.
func (s Store) Clear(jar Jar) error {
	return jar.SetCookie(s.cookie("", time.Unix(0, 0).UTC(), -1))
}

func (s Store) cookie(value string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.name,
		Value:    value,
		Path:     s.path,
		Domain:   s.domain,
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: s.sameSite,
	}
}
