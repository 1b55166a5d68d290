package token

import "errors"

var (
	// ErrMissingKey is returned when a codec is constructed without a signing secret.
	ErrMissingKey = errors.New("token signing secret is missing")
	// ErrInvalidPayload is returned by Mint for identities missing required fields.
	ErrInvalidPayload = errors.New("invalid session payload")
	// ErrMalformed reports a token that is not a well-formed session token.
	ErrMalformed = errors.New("malformed token")
	// ErrTampered reports a token whose signature or issuer does not verify.
	ErrTampered = errors.New("token signature mismatch")
	// ErrAlgorithmMismatch reports a token signed with an unexpected algorithm.
	ErrAlgorithmMismatch = errors.New("unexpected token algorithm")
	// ErrExpired reports a token past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrAbsent reports that no token was presented.
	ErrAbsent = errors.New("no token")
)

type payloadError struct {
	reason string
}

func (e *payloadError) Error() string {
	return ErrInvalidPayload.Error() + ": " + e.reason
}

func (e *payloadError) Unwrap() error {
	return ErrInvalidPayload
}

func invalidPayload(reason string) error {
	return &payloadError{reason: reason}
}
