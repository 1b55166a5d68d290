package goSession

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/access"
	"github.com/MrEthical07/goSession/cookie"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/role"
	"github.com/MrEthical07/goSession/token"
)

// Builder assembles an Engine. A Builder is single-use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	provider  IdentityProvider
	auditSink AuditSink
	logger    *zap.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret sets the signing secret.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.config.Codec.Secret = cloneBytes(secret)
	return b
}

// WithRedis sets the client used by the login throttle. Required when RateLimit is enabled.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithIdentityProvider sets the credential backend used by Engine.Login.
func (b *Builder) WithIdentityProvider(p IdentityProvider) *Builder {
	b.provider = p
	return b
}

// WithAuditSink sets the audit destination. It only takes effect when Audit is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the time source used for minting and verifying tokens.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the verification latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and constructs the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if cfg.Security.ProductionMode {
		cfg.Cookie.Secure = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.RateLimit.Enabled && b.redis == nil {
		return nil, errors.New("RateLimit requires redis client")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// -------- ROLE ROUTER --------
	router, err := role.NewRouter(cfg.Roles.Routes, cfg.Roles.Fallback)
	if err != nil {
		return nil, err
	}

	// -------- ACCESS POLICY --------
	policy, err := access.NewPolicy(access.Config{
		LoginPath:         cfg.Access.LoginPath,
		ProtectedPrefixes: cfg.Access.ProtectedPrefixes,
		PublicOnlyPaths:   cfg.Access.PublicOnlyPaths,
		RoleRules:         cfg.Access.RoleRules,
		Router:            router,
	})
	if err != nil {
		return nil, err
	}

	// -------- CODEC --------
	codec, err := token.NewCodec(token.Config{
		Secret: cloneBytes(cfg.Codec.Secret),
		Issuer: cfg.Codec.Issuer,
		Now:    b.now,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config: cfg,
		codec:  codec,
		store: cookie.NewStore(cookie.Config{
			Name:     cfg.Cookie.Name,
			Secure:   cfg.Cookie.Secure,
			SameSite: cfg.Cookie.SameSite,
			Path:     cfg.Cookie.Path,
			Domain:   cfg.Cookie.Domain,
		}),
		policy:   policy,
		router:   router,
		provider: b.provider,
		logger:   logger.Named("gosession"),
	}

	if cfg.RateLimit.Enabled {
		engine.limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:      cfg.RateLimit.EnableIPThrottle,
			MaxLoginAttempts:      cfg.RateLimit.MaxLoginAttempts,
			LoginCooldownDuration: cfg.RateLimit.LoginCooldownDuration,
			Prefix:                cfg.RateLimit.RedisPrefix,
		})
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink, engine.logger.Named("audit"))
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
