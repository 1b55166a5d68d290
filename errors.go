package goSession

import (
	"errors"
	"time"
)

var (
	// ErrSecretMissing is returned when no signing secret is configured.
	ErrSecretMissing = errors.New("session secret is missing")
	// ErrSecretTooShort is returned in production mode for secrets under 32 bytes.
	ErrSecretTooShort = errors.New("session secret must be at least 32 bytes in production mode")
	// ErrCookieWrite wraps transport failures while setting or clearing the session cookie.
	ErrCookieWrite = errors.New("session cookie write failed")
	// ErrInvalidCredentials is the uniform login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginRateLimited is returned while the login throttle is engaged.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrIdentityUnavailable is returned when the identity provider cannot be reached.
	ErrIdentityUnavailable = errors.New("identity provider unavailable")
	// ErrEngineNotReady is returned when a required collaborator was not configured.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrBuilderUsed is returned when Build is called twice on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
)

// RetryAfterError carries the remaining cooldown of a throttled operation.
type RetryAfterError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RetryAfterError) Error() string {
	return e.Err.Error()
}

func (e *RetryAfterError) Unwrap() error {
	return e.Err
}
