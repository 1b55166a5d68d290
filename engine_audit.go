package goSession

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/token"
)

const (
	auditEventLoginSuccess     = "login_success"
	auditEventLoginFailure     = "login_failure"
	auditEventLoginRateLimited = "login_rate_limited"
	auditEventSessionCreated   = "session_created"
	auditEventSessionRefreshed = "session_refreshed"
	auditEventSessionDestroyed = "session_destroyed"
	auditEventSessionRejected  = "session_rejected"
	auditEventAccessRefused    = "access_refused"
)

// AuditErrorCode is the stable error label written to audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrCookieWrite        AuditErrorCode = "cookie_write_failed"
	auditErrInvalidPayload     AuditErrorCode = "invalid_payload"
	auditErrTokenExpired       AuditErrorCode = "token_expired"
	auditErrTokenTampered      AuditErrorCode = "token_tampered"
	auditErrTokenMalformed     AuditErrorCode = "token_malformed"
	auditErrAlgorithmMismatch  AuditErrorCode = "algorithm_mismatch"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	tokenID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.codec.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		TokenID:   tokenID,
		RequestID: RequestIDFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Path:      requestPathFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrIdentityUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrCookieWrite):
		return auditErrCookieWrite
	case errors.Is(err, token.ErrInvalidPayload):
		return auditErrInvalidPayload
	case errors.Is(err, token.ErrExpired):
		return auditErrTokenExpired
	case errors.Is(err, token.ErrTampered):
		return auditErrTokenTampered
	case errors.Is(err, token.ErrAlgorithmMismatch):
		return auditErrAlgorithmMismatch
	case errors.Is(err, token.ErrMalformed):
		return auditErrTokenMalformed
	default:
		return auditErrInternal
	}
}
