package token

// Status is the outcome of verifying a presented token.
type Status uint8

const (
	// StatusValid means the token verified and the payload is usable.
	StatusValid Status = iota
	// StatusAbsent means no token was presented.
	StatusAbsent
	// StatusMalformed means the token could not be decoded into a session payload.
	StatusMalformed
	// StatusTampered means the signature or issuer did not verify.
	StatusTampered
	// StatusAlgorithmMismatch means the header named an algorithm other than HS256.
	StatusAlgorithmMismatch
	// StatusExpired means the token verified but its window has passed.
	StatusExpired
)

// String returns a stable, log-friendly name.
func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusAbsent:
		return "absent"
	case StatusMalformed:
		return "malformed"
	case StatusTampered:
		return "tampered"
	case StatusAlgorithmMismatch:
		return "algorithm_mismatch"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Err returns the sentinel error for a failure status, or nil for StatusValid.
func (s Status) Err() error {
	switch s {
	case StatusValid:
		return nil
	case StatusAbsent:
		return ErrAbsent
	case StatusTampered:
		return ErrTampered
	case StatusAlgorithmMismatch:
		return ErrAlgorithmMismatch
	case StatusExpired:
		return ErrExpired
	default:
		return ErrMalformed
	}
}

// Result is the tagged verification outcome. Payload is set only for StatusValid.
// Err carries the underlying cause for server-side logging and must never be written
// to a client.
type Result struct {
	Status  Status
	Payload *Payload
	Err     error
}

// OK collapses the result to the boolean exposed to UI and API code.
func (r Result) OK() bool {
	return r.Status == StatusValid && r.Payload != nil
}

// Absent is the result for a request that presented no token.
func Absent() Result {
	return Result{Status: StatusAbsent, Err: ErrAbsent}
}

func failure(status Status, cause error) Result {
	if cause == nil {
		cause = status.Err()
	}
	return Result{Status: status, Err: cause}
}
