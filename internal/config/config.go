// Package config loads the process configuration of the goSession binaries from the
// environment, after a best-effort .env load.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/access"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/role"
)

// ErrInvalidRoleRules is returned for a malformed GATE_ROLE_RULES value.
var ErrInvalidRoleRules = errors.New("invalid GATE_ROLE_RULES")

// Config is the process configuration.
type Config struct {
	Env             string
	HTTPAddr        string
	ShutdownTimeout time.Duration
	BackendURL      string
	FrontendURL     string
	RedisAddr       string
	Log             logging.Config
	Session         goSession.Config
}

// Production reports whether APP_ENV is production.
func (c Config) Production() bool {
	return c.Env == "production"
}

// Load reads files with godotenv (".env" when none are given, ignoring a missing file)
// and then builds the configuration from the environment. Variables already set in the
// environment win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(files...); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}
	return fromEnv()
}

func fromEnv() (Config, error) {
	cfg := Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":3000"),
		ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		BackendURL:      getEnv("BACKEND_URL", ""),
		FrontendURL:     getEnv("FRONTEND_URL", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
	}

	cfg.Log = logging.Config{
		Level: getEnv("LOG_LEVEL", "info"),
		Dev:   getEnvBool("LOG_DEV", false),
	}

	s := goSession.DefaultConfig()
	s.Codec.Secret = []byte(os.Getenv("SESSION_SECRET"))
	s.Codec.Issuer = getEnv("SESSION_ISSUER", s.Codec.Issuer)
	s.Cookie.Name = getEnv("SESSION_COOKIE_NAME", s.Cookie.Name)
	s.Cookie.Secure = getEnvBool("SESSION_COOKIE_SECURE", s.Cookie.Secure)
	s.Cookie.Domain = getEnv("SESSION_COOKIE_DOMAIN", s.Cookie.Domain)
	s.Session.SlidingRefresh = getEnvBool("SESSION_SLIDING_REFRESH", s.Session.SlidingRefresh)
	s.Session.RefreshMinAge = getEnvDuration("SESSION_REFRESH_MIN_AGE", s.Session.RefreshMinAge)

	s.Access.LoginPath = getEnv("GATE_LOGIN_PATH", s.Access.LoginPath)
	s.Access.ProtectedPrefixes = getEnvList("GATE_PROTECTED_PREFIXES", s.Access.ProtectedPrefixes)
	s.Access.PublicOnlyPaths = getEnvList("GATE_PUBLIC_ONLY_PATHS", s.Access.PublicOnlyPaths)
	if raw := strings.TrimSpace(os.Getenv("GATE_ROLE_RULES")); raw != "" {
		rules, err := ParseRoleRules(raw)
		if err != nil {
			return Config{}, err
		}
		s.Access.RoleRules = rules
	}
	s.Access.RedirectStatus = getEnvInt("GATE_REDIRECT_STATUS", s.Access.RedirectStatus)

	s.RateLimit.Enabled = cfg.RedisAddr != ""
	s.RateLimit.MaxLoginAttempts = getEnvInt("LOGIN_MAX_ATTEMPTS", s.RateLimit.MaxLoginAttempts)
	s.RateLimit.LoginCooldownDuration = getEnvDuration("LOGIN_COOLDOWN", s.RateLimit.LoginCooldownDuration)
	s.RateLimit.EnableIPThrottle = getEnvBool("LOGIN_IP_THROTTLE", s.RateLimit.EnableIPThrottle)

	s.Audit.Enabled = getEnvBool("AUDIT_ENABLED", false)
	s.Metrics.Enabled = getEnvBool("METRICS_ENABLED", false)
	s.Metrics.EnableLatencyHistograms = s.Metrics.Enabled
	s.Security.ProductionMode = cfg.Production()
	if s.Security.ProductionMode {
		s.Cookie.Secure = true
	}
	cfg.Session = s

	if cfg.HTTPAddr == "" {
		return Config{}, fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if err := s.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseRoleRules parses "prefix=role[,role];prefix=role". Roles are names or wire values.
func ParseRoleRules(raw string) ([]access.RoleRule, error) {
	var rules []access.RoleRule
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		prefix, list, ok := strings.Cut(entry, "=")
		prefix = strings.TrimSpace(prefix)
		if !ok || prefix == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRoleRules, entry)
		}

		rule := access.RoleRule{Prefix: prefix}
		for _, name := range strings.Split(list, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			r, err := role.Parse(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRoleRules, entry, err)
			}
			rule.Roles = append(rule.Roles, r)
		}
		if len(rule.Roles) == 0 {
			return nil, fmt.Errorf("%w: %q names no roles", ErrInvalidRoleRules, entry)
		}
		rules = append(rules, rule)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: no rules", ErrInvalidRoleRules)
	}
	return rules, nil
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

