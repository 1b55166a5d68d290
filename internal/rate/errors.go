package rate

import "errors"

// ErrLimited is returned while a counter is at or over its budget.
var ErrLimited = errors.New("login attempts exhausted")

// StoreError reports a failed Redis round trip. The limiter has no local fallback, so
// callers treat it as a refusal.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "rate: redis " + e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

// IsStoreError reports whether err came from the Redis backend.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
