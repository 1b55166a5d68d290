package goSession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/access"
	"github.com/MrEthical07/goSession/cookie"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/role"
	"github.com/MrEthical07/goSession/token"
)

// Engine ties the codec, cookie store, access policy and role router together. It is
// built once by [Builder.Build] and safe for concurrent use.
type Engine struct {
	config   Config
	codec    *token.Codec
	store    cookie.Store
	policy   *access.Policy
	router   *role.Router
	provider IdentityProvider
	limiter  *rate.Limiter
	audit    *auditDispatcher
	metrics  *Metrics
	logger   *zap.Logger
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events were dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// CookieName returns the configured session cookie name.
func (e *Engine) CookieName() string {
	return e.store.Name()
}

// LoginPath returns the path unauthenticated users are redirected to.
func (e *Engine) LoginPath() string {
	return e.policy.LoginPath()
}

// RedirectStatus returns the HTTP status used for gate redirects.
func (e *Engine) RedirectStatus() int {
	return e.config.Access.RedirectStatus
}

// LandingRouteFor returns the landing route for r.
func (e *Engine) LandingRouteFor(r role.Role) string {
	return e.router.LandingRouteFor(r)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Create mints a session for id and writes it to the cookie jar.
func (e *Engine) Create(ctx context.Context, jar cookie.Jar, id token.Identity) (*token.Payload, error) {
	payload, err := e.issue(ctx, jar, id)
	if err != nil {
		e.emitAudit(ctx, auditEventSessionCreated, false, id.UserID, "", err, nil)
		return nil, err
	}

	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventSessionCreated, true, payload.UserID, payload.TokenID, nil, nil)
	e.logger.Info("session created",
		zap.String("user_id", payload.UserID),
		zap.String("role", payload.Role.String()),
		zap.Time("expires_at", payload.ExpiresAt),
		zap.String("request_id", RequestIDFromContext(ctx)),
	)
	return payload, nil
}

// Current returns the verified session, or nil and false for any failure. The concrete
// reason is logged, counted and audited but never returned.
func (e *Engine) Current(ctx context.Context, jar cookie.Jar) (*token.Payload, bool) {
	res := e.Inspect(ctx, jar)
	if !res.OK() {
		return nil, false
	}
	return res.Payload, true
}

// Inspect reads and verifies the session cookie and returns the tagged result.
func (e *Engine) Inspect(ctx context.Context, jar cookie.Jar) token.Result {
	raw, ok := e.store.Read(jar)
	if !ok {
		e.metricInc(MetricVerifyAbsent)
		return token.Absent()
	}

	start := time.Now()
	res := e.codec.Verify(raw)
	if e.metrics != nil {
		e.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}
	e.metricInc(verifyMetric(res.Status))

	if !res.OK() {
		e.logger.Debug("session rejected",
			zap.String("reason", res.Status.String()),
			zap.String("path", requestPathFromContext(ctx)),
			zap.Time("at", e.codec.Now()),
			zap.String("request_id", RequestIDFromContext(ctx)),
			zap.Error(res.Err),
		)
		e.emitAudit(ctx, auditEventSessionRejected, false, "", "", res.Status.Err(), func() map[string]string {
			return map[string]string{"reason": res.Status.String()}
		})
	}
	return res
}

// Refresh re-mints the current session with a new validity window. Without a valid
// session it does nothing and returns nil, false, nil. A session minted within the current
// second is returned unchanged with false, since a re-mint would carry the same expiry.
func (e *Engine) Refresh(ctx context.Context, jar cookie.Jar) (*token.Payload, bool, error) {
	current, ok := e.Current(ctx, jar)
	if !ok {
		return nil, false, nil
	}
	if !e.extendsExpiry(current) {
		return current, false, nil
	}

	payload, err := e.issue(ctx, jar, current.Identity)
	if err != nil {
		e.emitAudit(ctx, auditEventSessionRefreshed, false, current.UserID, current.TokenID, err, nil)
		return nil, false, err
	}

	e.metricInc(MetricSessionRefreshed)
	e.emitAudit(ctx, auditEventSessionRefreshed, true, payload.UserID, payload.TokenID, nil, func() map[string]string {
		return map[string]string{"previous_token_id": current.TokenID}
	})
	return payload, true, nil
}

// RefreshIfDue performs the sliding refresh for an already verified session when it is
// enabled and the token is at least Session.RefreshMinAge old. It returns the payload
// now in effect.
func (e *Engine) RefreshIfDue(ctx context.Context, jar cookie.Jar, current *token.Payload) (*token.Payload, error) {
	if current == nil || !e.config.Session.SlidingRefresh {
		return current, nil
	}
	if e.codec.Now().Sub(current.IssuedAt) < e.config.Session.RefreshMinAge || !e.extendsExpiry(current) {
		return current, nil
	}

	payload, err := e.issue(ctx, jar, current.Identity)
	if err != nil {
		return current, err
	}
	e.metricInc(MetricSessionRefreshed)
	return payload, nil
}

// extendsExpiry reports whether a token minted now would expire strictly later than
// current. Token timestamps have whole-second resolution.
func (e *Engine) extendsExpiry(current *token.Payload) bool {
	return e.codec.Now().UTC().Truncate(time.Second).After(current.IssuedAt)
}

// Destroy clears the session cookie. It is idempotent.
func (e *Engine) Destroy(ctx context.Context, jar cookie.Jar) error {
	var userID, tokenID string
	if raw, ok := e.store.Read(jar); ok {
		if res := e.codec.Verify(raw); res.OK() {
			userID, tokenID = res.Payload.UserID, res.Payload.TokenID
		}
	}

	if err := e.store.Clear(jar); err != nil {
		e.metricInc(MetricCookieWriteFailure)
		e.logger.Warn("session cookie clear failed", zap.Error(err))
		wrapped := fmt.Errorf("%w: %w", ErrCookieWrite, err)
		e.emitAudit(ctx, auditEventSessionDestroyed, false, userID, tokenID, wrapped, nil)
		return wrapped
	}

	e.metricInc(MetricSessionDestroyed)
	e.emitAudit(ctx, auditEventSessionDestroyed, true, userID, tokenID, nil, nil)
	return nil
}

// Login authenticates creds with the identity provider and creates a session.
//
// Failures are ErrLoginRateLimited (as a *RetryAfterError when the cooldown is known),
// ErrInvalidCredentials, ErrIdentityUnavailable, or a cookie write error.
func (e *Engine) Login(ctx context.Context, jar cookie.Jar, creds Credentials) (*token.Payload, error) {
	if e.provider == nil {
		return nil, ErrEngineNotReady
	}

	identifier := strings.ToLower(strings.TrimSpace(creds.Email))
	ip := clientIPFromContext(ctx)

	if e.limiter != nil {
		if err := e.limiter.Check(ctx, rate.Key{Identifier: identifier, IP: ip}); err != nil {
			return nil, e.loginRateLimited(ctx, identifier, ip, err)
		}
	}

	if identifier == "" || creds.Password == "" {
		return nil, e.loginFailed(ctx, identifier, ip, "empty_credentials")
	}

	id, err := e.provider.Authenticate(ctx, Credentials{Email: identifier, Password: creds.Password})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, e.loginFailed(ctx, identifier, ip, "rejected")
		}
		e.metricInc(MetricLoginUnavailable)
		e.logger.Error("identity provider failed", zap.Error(err), zap.String("request_id", RequestIDFromContext(ctx)))
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrIdentityUnavailable, func() map[string]string {
			return map[string]string{"identifier": identifier}
		})
		return nil, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}

	payload, err := e.Create(ctx, jar, id)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, id.UserID, "", err, func() map[string]string {
			return map[string]string{"identifier": identifier, "reason": "session_create"}
		})
		return nil, err
	}

	if e.limiter != nil {
		if err := e.limiter.Reset(ctx, identifier); err != nil {
			e.logger.Warn("login throttle reset failed", zap.Error(err))
		}
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, payload.UserID, payload.TokenID, nil, func() map[string]string {
		return map[string]string{"identifier": identifier}
	})
	return payload, nil
}

// Authorize verifies the session in jar and evaluates the access policy for path.
// The returned payload is nil when there is no valid session.
func (e *Engine) Authorize(ctx context.Context, jar cookie.Jar, path string) (access.Decision, *token.Payload) {
	ctx = WithRequestPath(ctx, path)

	var session *token.Payload
	if res := e.Inspect(ctx, jar); res.OK() {
		session = res.Payload
	}

	d := e.policy.Decide(path, session)
	e.metricInc(accessMetric(d.Outcome))

	switch d.Outcome {
	case access.RedirectRole, access.Deny:
		e.logger.Info("access refused",
			zap.String("outcome", d.Outcome.String()),
			zap.String("path", d.Path),
			zap.String("rule", d.Rule),
			zap.String("user_id", session.UserID),
			zap.String("role", session.Role.String()),
			zap.String("request_id", RequestIDFromContext(ctx)),
		)
		e.emitAudit(ctx, auditEventAccessRefused, false, session.UserID, session.TokenID, nil, func() map[string]string {
			return map[string]string{
				"outcome": d.Outcome.String(),
				"rule":    d.Rule,
				"role":    session.Role.String(),
			}
		})
	case access.RedirectLogin:
		e.logger.Debug("access requires login",
			zap.String("path", d.Path),
			zap.String("rule", d.Rule),
			zap.String("request_id", RequestIDFromContext(ctx)),
		)
	}

	return d, session
}

// issue mints id and writes the cookie without recording lifecycle metrics.
func (e *Engine) issue(ctx context.Context, jar cookie.Jar, id token.Identity) (*token.Payload, error) {
	raw, payload, err := e.codec.Mint(id)
	if err != nil {
		return nil, err
	}
	if err := e.store.Write(jar, raw, payload.ExpiresAt); err != nil {
		e.metricInc(MetricCookieWriteFailure)
		e.logger.Warn("session cookie write failed",
			zap.Error(err),
			zap.String("request_id", RequestIDFromContext(ctx)),
		)
		return nil, fmt.Errorf("%w: %w", ErrCookieWrite, err)
	}
	return payload, nil
}

func (e *Engine) loginFailed(ctx context.Context, identifier, ip, reason string) error {
	if e.limiter != nil {
		if err := e.limiter.Fail(ctx, rate.Key{Identifier: identifier, IP: ip}); err != nil {
			return e.loginRateLimited(ctx, identifier, ip, err)
		}
	}
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrInvalidCredentials, func() map[string]string {
		return map[string]string{"identifier": identifier, "reason": reason}
	})
	return ErrInvalidCredentials
}

func (e *Engine) loginRateLimited(ctx context.Context, identifier, ip string, cause error) error {
	e.metricInc(MetricLoginRateLimited)
	if rate.IsStoreError(cause) {
		e.logger.Error("login throttle unavailable", zap.Error(cause))
	}
	e.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", ErrLoginRateLimited, func() map[string]string {
		return map[string]string{"identifier": identifier}
	})

	retryAfter, err := e.limiter.RetryAfter(ctx, rate.Key{Identifier: identifier, IP: ip})
	if err != nil || retryAfter <= 0 {
		return ErrLoginRateLimited
	}
	return &RetryAfterError{Err: ErrLoginRateLimited, RetryAfter: retryAfter}
}
