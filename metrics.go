package goSession

import (
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/access"
	"github.com/MrEthical07/goSession/token"
)

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected credentials.
	MetricLoginFailure
	// MetricLoginRateLimited counts logins refused by the throttle.
	MetricLoginRateLimited
	// MetricLoginUnavailable counts logins that failed because the identity provider was down.
	MetricLoginUnavailable
	// MetricSessionCreated counts minted sessions.
	MetricSessionCreated
	// MetricSessionRefreshed counts re-minted sessions.
	MetricSessionRefreshed
	// MetricSessionDestroyed counts cleared sessions.
	MetricSessionDestroyed
	// MetricVerifyValid counts tokens that verified.
	MetricVerifyValid
	// MetricVerifyAbsent counts requests without a session cookie.
	MetricVerifyAbsent
	// MetricVerifyExpired counts expired tokens.
	MetricVerifyExpired
	// MetricVerifyTampered counts tokens with a bad signature or issuer.
	MetricVerifyTampered
	// MetricVerifyMalformed counts undecodable tokens.
	MetricVerifyMalformed
	// MetricVerifyAlgorithmMismatch counts tokens naming a foreign algorithm.
	MetricVerifyAlgorithmMismatch
	// MetricAccessAllowed counts allowed gate decisions.
	MetricAccessAllowed
	// MetricAccessRedirectLogin counts redirects to the login path.
	MetricAccessRedirectLogin
	// MetricAccessRedirectHome counts redirects away from public-only paths.
	MetricAccessRedirectHome
	// MetricAccessRedirectRole counts wrong-role redirects.
	MetricAccessRedirectRole
	// MetricAccessDenied counts 403 decisions.
	MetricAccessDenied
	// MetricCookieWriteFailure counts cookie writes refused by the transport.
	MetricCookieWriteFailure
	// MetricVerifyLatency is the token verification latency histogram.
	MetricVerifyLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters. A nil or disabled Metrics ignores updates.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns counters configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only MetricVerifyLatency has a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricVerifyLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current count for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when enabled, the latency buckets.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricVerifyLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricVerifyLatency].buckets[i])
		}
		s.Histograms[MetricVerifyLatency] = buckets
	}

	return s
}

// Bucket upper bounds: 50µs, 100µs, 250µs, 500µs, 1ms, 5ms, 25ms, +Inf.
func bucketIndex(d time.Duration) int {
	us := d.Microseconds()

	switch {
	case us <= 50:
		return 0
	case us <= 100:
		return 1
	case us <= 250:
		return 2
	case us <= 500:
		return 3
	case us <= 1000:
		return 4
	case us <= 5000:
		return 5
	case us <= 25000:
		return 6
	default:
		return 7
	}
}

func verifyMetric(s token.Status) MetricID {
	switch s {
	case token.StatusValid:
		return MetricVerifyValid
	case token.StatusAbsent:
		return MetricVerifyAbsent
	case token.StatusExpired:
		return MetricVerifyExpired
	case token.StatusTampered:
		return MetricVerifyTampered
	case token.StatusAlgorithmMismatch:
		return MetricVerifyAlgorithmMismatch
	default:
		return MetricVerifyMalformed
	}
}

func accessMetric(o access.Outcome) MetricID {
	switch o {
	case access.RedirectLogin:
		return MetricAccessRedirectLogin
	case access.RedirectHome:
		return MetricAccessRedirectHome
	case access.RedirectRole:
		return MetricAccessRedirectRole
	case access.Deny:
		return MetricAccessDenied
	default:
		return MetricAccessAllowed
	}
}
