package internaldefs

import (
	"strconv"

	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one engine counter. Name is the flat Prometheus name; Family and Value
// place the counter inside an attribute-keyed instrument for OTel.
type CounterDef struct {
	ID     goSession.MetricID
	Name   string
	Help   string
	Family string
	Value  string
}

// Family is one attribute-keyed OTel counter. An empty AttrKey means the family holds a
// single counter and carries no attribute.
type Family struct {
	Name    string
	Help    string
	AttrKey string
}

// Families lists the OTel counter instruments.
var Families = []Family{
	{Name: "gosession.logins", Help: "Login attempts by result.", AttrKey: "result"},
	{Name: "gosession.sessions", Help: "Session lifecycle operations.", AttrKey: "op"},
	{Name: "gosession.verifications", Help: "Session token verifications by result.", AttrKey: "result"},
	{Name: "gosession.access.decisions", Help: "Gate decisions by outcome.", AttrKey: "outcome"},
	{Name: "gosession.cookie.write_failures", Help: "Session cookie writes refused by the transport."},
}

// HistogramDef names one engine histogram.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Successful logins.", Family: "gosession.logins", Value: "success"},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Logins rejected for bad credentials.", Family: "gosession.logins", Value: "failure"},
	{ID: goSession.MetricLoginRateLimited, Name: "gosession_login_rate_limited_total", Help: "Logins refused by the throttle.", Family: "gosession.logins", Value: "rate_limited"},
	{ID: goSession.MetricLoginUnavailable, Name: "gosession_login_unavailable_total", Help: "Logins failed because the identity provider was unavailable.", Family: "gosession.logins", Value: "unavailable"},
	{ID: goSession.MetricSessionCreated, Name: "gosession_session_created_total", Help: "Sessions minted.", Family: "gosession.sessions", Value: "created"},
	{ID: goSession.MetricSessionRefreshed, Name: "gosession_session_refreshed_total", Help: "Sessions re-minted.", Family: "gosession.sessions", Value: "refreshed"},
	{ID: goSession.MetricSessionDestroyed, Name: "gosession_session_destroyed_total", Help: "Sessions cleared.", Family: "gosession.sessions", Value: "destroyed"},
	{ID: goSession.MetricVerifyValid, Name: "gosession_verify_valid_total", Help: "Session tokens that verified.", Family: "gosession.verifications", Value: "valid"},
	{ID: goSession.MetricVerifyAbsent, Name: "gosession_verify_absent_total", Help: "Requests without a session cookie.", Family: "gosession.verifications", Value: "absent"},
	{ID: goSession.MetricVerifyExpired, Name: "gosession_verify_expired_total", Help: "Expired session tokens.", Family: "gosession.verifications", Value: "expired"},
	{ID: goSession.MetricVerifyTampered, Name: "gosession_verify_tampered_total", Help: "Session tokens with a bad signature or issuer.", Family: "gosession.verifications", Value: "tampered"},
	{ID: goSession.MetricVerifyMalformed, Name: "gosession_verify_malformed_total", Help: "Undecodable session tokens.", Family: "gosession.verifications", Value: "malformed"},
	{ID: goSession.MetricVerifyAlgorithmMismatch, Name: "gosession_verify_algorithm_mismatch_total", Help: "Session tokens naming a foreign algorithm.", Family: "gosession.verifications", Value: "algorithm_mismatch"},
	{ID: goSession.MetricAccessAllowed, Name: "gosession_access_allowed_total", Help: "Gate decisions that allowed the request.", Family: "gosession.access.decisions", Value: "allow"},
	{ID: goSession.MetricAccessRedirectLogin, Name: "gosession_access_redirect_login_total", Help: "Gate redirects to the login path.", Family: "gosession.access.decisions", Value: "redirect_login"},
	{ID: goSession.MetricAccessRedirectHome, Name: "gosession_access_redirect_home_total", Help: "Gate redirects away from public-only paths.", Family: "gosession.access.decisions", Value: "redirect_home"},
	{ID: goSession.MetricAccessRedirectRole, Name: "gosession_access_redirect_role_total", Help: "Gate redirects for a wrong role.", Family: "gosession.access.decisions", Value: "redirect_role"},
	{ID: goSession.MetricAccessDenied, Name: "gosession_access_denied_total", Help: "Gate decisions answered with 403.", Family: "gosession.access.decisions", Value: "deny"},
	{ID: goSession.MetricCookieWriteFailure, Name: "gosession_cookie_write_failure_total", Help: "Session cookie writes refused by the transport.", Family: "gosession.cookie.write_failures", Value: ""},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricVerifyLatency, Name: "gosession_verify_latency_seconds", Help: "Session token verification latency."},
}

// AuditDroppedName is the counter for audit events dropped on a full buffer.
const AuditDroppedName = "gosession_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Audit events dropped due to dispatcher backpressure."

// HistogramUpperBounds are the finite bucket bounds in seconds. The last engine bucket
// is +Inf.
var HistogramUpperBounds = []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.005, 0.025}

// BucketLabels returns the "le" label of every engine bucket, +Inf included.
func BucketLabels() [8]string {
	var out [8]string
	for i, b := range HistogramUpperBounds {
		out[i] = strconv.FormatFloat(b, 'g', -1, 64)
	}
	out[len(out)-1] = "+Inf"
	return out
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
