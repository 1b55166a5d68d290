package cookie

import "errors"

var (
	// ErrResponseCommitted is returned when a cookie is set after the response headers were written.
	ErrResponseCommitted = errors.New("response already committed")
	// ErrEmptyToken is returned by Store.Write for an empty token value.
	ErrEmptyToken = errors.New("empty session token")
)
