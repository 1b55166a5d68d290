package access

import (
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/role"
	"github.com/MrEthical07/goSession/token"
)

func newTestPolicy(t *testing.T) *Policy {
	t.Helper()
	p, err := NewPolicy(Config{
		ProtectedPrefixes: []string{"/admin", "/user", "/manager", "/settings"},
		PublicOnlyPaths:   []string{"/login", "/signup"},
		RoleRules: []RoleRule{
			{Prefix: "/admin", Roles: []role.Role{role.Admin}},
			{Prefix: "/manager", Roles: []role.Role{role.Admin, role.Manager}},
			{Prefix: "/user", Roles: []role.Role{role.User, role.Admin}},
		},
	})
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	return p
}

func sessionFor(r role.Role) *token.Payload {
	now := time.Now().UTC().Truncate(time.Second)
	return &token.Payload{
		Identity: token.Identity{
			UserID: "u", Email: "e@x", Name: "n", Role: r, IdentityID: "i",
		},
		IssuedAt:  now,
		ExpiresAt: now.Add(token.SessionTTL),
	}
}

func TestDecide(t *testing.T) {
	p := newTestPolicy(t)

	tests := []struct {
		name     string
		path     string
		session  *token.Payload
		outcome  Outcome
		location string
	}{
		{"protected without session", "/settings/profile", nil, RedirectLogin, "/login"},
		{"role gated without session", "/admin", nil, RedirectLogin, "/login"},
		{"public page without session", "/", nil, Allow, ""},
		{"login without session", "/login", nil, Allow, ""},
		{"login with admin session", "/login", sessionFor(role.Admin), RedirectHome, "/admin"},
		{"signup with user session", "/signup", sessionFor(role.User), RedirectHome, "/user"},
		{"admin area with user session", "/admin/reports", sessionFor(role.User), RedirectRole, "/user"},
		{"admin area with admin session", "/admin/reports", sessionFor(role.Admin), Allow, ""},
		{"manager area with admin session", "/manager", sessionFor(role.Admin), Allow, ""},
		{"manager area with user session", "/manager/team", sessionFor(role.User), RedirectRole, "/user"},
		{"protected with any session", "/settings", sessionFor(role.Manager), Allow, ""},
		{"segment aware prefix", "/administrator", nil, Allow, ""},
		{"dot segments are cleaned", "/public/../admin", nil, RedirectLogin, "/login"},
		{"trailing slash is cleaned", "/admin/", sessionFor(role.User), RedirectRole, "/user"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := p.Decide(tc.path, tc.session)
			if d.Outcome != tc.outcome {
				t.Fatalf("outcome: got %v want %v", d.Outcome, tc.outcome)
			}
			if d.Location != tc.location {
				t.Fatalf("location: got %q want %q", d.Location, tc.location)
			}
			if d.IsRedirect() != (tc.location != "") {
				t.Fatalf("IsRedirect mismatch for %v", d.Outcome)
			}
		})
	}
}

func TestDecideUnknownRoleNeverReachesAdmin(t *testing.T) {
	p, err := NewPolicy(Config{
		PublicOnlyPaths: []string{"/login"},
		RoleRules:       []RoleRule{{Prefix: "/admin", Roles: []role.Role{role.Admin}}},
	})
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	unknown := sessionFor(role.Role(9))

	d := p.Decide("/login", unknown)
	if d.Outcome != RedirectHome || d.Location != "/manager" {
		t.Fatalf("expected unknown role sent to fallback /manager, got %v %q", d.Outcome, d.Location)
	}
	d = p.Decide("/admin", unknown)
	if d.Outcome != RedirectRole || d.Location != "/manager" {
		t.Fatalf("expected unknown role redirected to /manager, got %v %q", d.Outcome, d.Location)
	}
}

func TestDecideDeniesWhenLandingRouteIsClosed(t *testing.T) {
	p := newTestPolicy(t)
	unknown := sessionFor(role.Role(9))

	// The fallback area is closed to the unknown role, so any redirect would bounce.
	for _, path := range []string{"/manager", "/admin", "/login"} {
		if d := p.Decide(path, unknown); d.Outcome != Deny {
			t.Fatalf("%s: expected deny, got %v %q", path, d.Outcome, d.Location)
		}
	}
}

func TestDecideDeniesSelfRedirect(t *testing.T) {
	router, err := role.NewRouter(map[role.Role]string{
		role.Admin:   "/admin",
		role.User:    "/portal/user",
		role.Manager: "/manager",
	}, role.Manager)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	p, err := NewPolicy(Config{
		RoleRules: []RoleRule{{Prefix: "/portal", Roles: []role.Role{role.Admin}}},
		Router:    router,
	})
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}

	d := p.Decide("/portal/reports", sessionFor(role.User))
	if d.Outcome != Deny || d.Rule != "/portal" {
		t.Fatalf("expected deny on /portal, got %+v", d)
	}
}

func TestDecideMostSpecificRoleRuleWins(t *testing.T) {
	p, err := NewPolicy(Config{
		RoleRules: []RoleRule{
			{Prefix: "/admin", Roles: []role.Role{role.Admin}},
			{Prefix: "/admin/help", Roles: []role.Role{role.Admin, role.User}},
		},
	})
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	if d := p.Decide("/admin/help/faq", sessionFor(role.User)); d.Outcome != Allow {
		t.Fatalf("expected allow under the more specific rule, got %v", d.Outcome)
	}
	if d := p.Decide("/admin/users", sessionFor(role.User)); d.Outcome != RedirectRole {
		t.Fatalf("expected redirect outside the specific rule, got %v", d.Outcome)
	}
}

func TestNewPolicyValidation(t *testing.T) {
	cases := map[string]Config{
		"relative protected": {ProtectedPrefixes: []string{"admin"}},
		"relative public":    {PublicOnlyPaths: []string{"login"}},
		"empty role set":     {RoleRules: []RoleRule{{Prefix: "/admin"}}},
		"undefined role":     {RoleRules: []RoleRule{{Prefix: "/admin", Roles: []role.Role{7}}}},
		"protected login":    {ProtectedPrefixes: []string{"/"}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewPolicy(cfg); !errors.Is(err, ErrInvalidPolicy) {
				t.Fatalf("expected ErrInvalidPolicy, got %v", err)
			}
		})
	}
}

func TestNewPolicyCopiesInput(t *testing.T) {
	prefixes := []string{"/admin"}
	p, err := NewPolicy(Config{ProtectedPrefixes: prefixes})
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	prefixes[0] = "/other"
	if d := p.Decide("/admin", nil); d.Outcome != RedirectLogin {
		t.Fatalf("policy changed after caller mutation: %v", d.Outcome)
	}
	if p.LoginPath() != DefaultLoginPath {
		t.Fatalf("expected default login path, got %q", p.LoginPath())
	}
}

func TestMatch(t *testing.T) {
	cases := []struct {
		prefix, path string
		want         bool
	}{
		{"/admin", "/admin", true},
		{"/admin", "/admin/x", true},
		{"/admin", "/administrator", false},
		{"/admin", "/", false},
		{"/", "/anything", true},
	}
	for _, c := range cases {
		if got := Match(c.prefix, c.path); got != c.want {
			t.Fatalf("Match(%q, %q) = %v, want %v", c.prefix, c.path, got, c.want)
		}
	}
}

func TestCleanPath(t *testing.T) {
	cases := map[string]string{
		"":                       "/",
		"  ":                     "/",
		"user":                   "/user",
		"//user//reports":        "/user/reports",
		"/user/./reports/../x":   "/user/x",
		"/admin/../user/reports": "/user/reports",
		"/user/":                 "/user",
	}
	for in, want := range cases {
		if got := CleanPath(in); got != want {
			t.Fatalf("CleanPath(%q) = %q, want %q", in, got, want)
		}
	}
}
