package config

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/role"
)

const secret = "0123456789abcdef0123456789abcdef"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SESSION_SECRET", "SESSION_ISSUER", "APP_ENV", "SESSION_COOKIE_NAME", "SESSION_COOKIE_SECURE",
		"SESSION_COOKIE_DOMAIN", "SESSION_SLIDING_REFRESH", "SESSION_REFRESH_MIN_AGE",
		"GATE_LOGIN_PATH", "GATE_PROTECTED_PREFIXES", "GATE_PUBLIC_ONLY_PATHS", "GATE_ROLE_RULES",
		"GATE_REDIRECT_STATUS", "HTTP_ADDR", "HTTP_SHUTDOWN_TIMEOUT", "BACKEND_URL", "FRONTEND_URL",
		"REDIS_ADDR", "LOGIN_MAX_ATTEMPTS", "LOGIN_COOLDOWN", "LOGIN_IP_THROTTLE", "LOG_LEVEL",
		"LOG_DEV", "AUDIT_ENABLED", "METRICS_ENABLED",
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	clearEnv(t)
	if _, err := fromEnv(); !errors.Is(err, goSession.ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", secret)

	cfg, err := fromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":3000" || cfg.Production() || cfg.Log.Level != "info" {
		t.Fatalf("unexpected process defaults %+v", cfg)
	}
	s := cfg.Session
	if string(s.Codec.Secret) != secret || s.Cookie.Name != "session" || !s.Cookie.Secure {
		t.Fatalf("unexpected session defaults %+v", s)
	}
	if s.RateLimit.Enabled || s.Audit.Enabled || s.Metrics.Enabled {
		t.Fatal("optional subsystems should be off by default")
	}
	if s.Session.RefreshMinAge != time.Minute {
		t.Fatalf("refresh min age = %v, want 1m", s.Session.RefreshMinAge)
	}
	if s.Access.RedirectStatus != http.StatusTemporaryRedirect {
		t.Fatalf("redirect status = %d", s.Access.RedirectStatus)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", secret)
	t.Setenv("SESSION_COOKIE_NAME", "sid")
	t.Setenv("SESSION_COOKIE_SECURE", "false")
	t.Setenv("SESSION_SLIDING_REFRESH", "false")
	t.Setenv("SESSION_REFRESH_MIN_AGE", "5m")
	t.Setenv("GATE_PROTECTED_PREFIXES", " /admin, /ops ,")
	t.Setenv("GATE_ROLE_RULES", "/admin=admin;/ops=admin,manager")
	t.Setenv("GATE_REDIRECT_STATUS", "303")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")
	t.Setenv("LOGIN_COOLDOWN", "2m")
	t.Setenv("METRICS_ENABLED", "true")

	cfg, err := fromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s := cfg.Session
	if s.Cookie.Name != "sid" || s.Cookie.Secure || s.Session.SlidingRefresh || s.Session.RefreshMinAge != 5*time.Minute {
		t.Fatalf("cookie/session overrides not applied: %+v", s)
	}
	if len(s.Access.ProtectedPrefixes) != 2 || s.Access.ProtectedPrefixes[1] != "/ops" {
		t.Fatalf("unexpected prefixes %q", s.Access.ProtectedPrefixes)
	}
	if len(s.Access.RoleRules) != 2 || len(s.Access.RoleRules[1].Roles) != 2 {
		t.Fatalf("unexpected role rules %+v", s.Access.RoleRules)
	}
	if s.Access.RedirectStatus != http.StatusSeeOther {
		t.Fatalf("redirect status = %d", s.Access.RedirectStatus)
	}
	if !s.RateLimit.Enabled || s.RateLimit.MaxLoginAttempts != 3 || s.RateLimit.LoginCooldownDuration != 2*time.Minute {
		t.Fatalf("unexpected rate limit %+v", s.RateLimit)
	}
	if !s.Metrics.Enabled || !s.Metrics.EnableLatencyHistograms {
		t.Fatal("expected metrics enabled")
	}
}

func TestLoadProduction(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "short")
	if _, err := fromEnv(); !errors.Is(err, goSession.ErrSecretTooShort) {
		t.Fatalf("expected ErrSecretTooShort, got %v", err)
	}

	t.Setenv("SESSION_SECRET", secret)
	t.Setenv("SESSION_COOKIE_SECURE", "false")
	cfg, err := fromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Session.Cookie.Secure || !cfg.Session.Security.ProductionMode {
		t.Fatal("production must force secure cookies")
	}
}

func TestLoadRejectsBadRedirectStatus(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", secret)
	t.Setenv("GATE_REDIRECT_STATUS", "302")
	if _, err := fromEnv(); err == nil {
		t.Fatal("expected error for 302")
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	content := "SESSION_SECRET=" + secret + "\nHTTP_ADDR=:9999\nBACKEND_URL=http://api.internal\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Unsetenv("SESSION_SECRET")
		_ = os.Unsetenv("HTTP_ADDR")
		_ = os.Unsetenv("BACKEND_URL")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" || cfg.BackendURL != "http://api.internal" {
		t.Fatalf("env file not applied: %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error for an explicit missing file")
	}
}

func TestParseRoleRules(t *testing.T) {
	rules, err := ParseRoleRules("/admin=admin; /reports = 1, manager ;")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rules) != 2 || rules[1].Prefix != "/reports" {
		t.Fatalf("unexpected rules %+v", rules)
	}
	if !role.Admin.In(rules[1].Roles) || !role.Manager.In(rules[1].Roles) {
		t.Fatalf("unexpected roles %+v", rules[1].Roles)
	}

	for _, bad := range []string{"/admin", "=admin", "/admin=", "/admin=root", ";;"} {
		if _, err := ParseRoleRules(bad); !errors.Is(err, ErrInvalidRoleRules) {
			t.Fatalf("%q: expected ErrInvalidRoleRules, got %v", bad, err)
		}
	}
}
