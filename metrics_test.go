package goSession

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/access"
	"github.com/MrEthical07/goSession/cookie"
	"github.com/MrEthical07/goSession/role"
	"github.com/MrEthical07/goSession/token"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)
	m.Observe(MetricVerifyLatency, time.Millisecond)

	if m.Value(MetricLoginSuccess) != 0 {
		t.Fatal("disabled metrics must not count")
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLoginSuccess)
	m.Observe(MetricVerifyLatency, time.Millisecond)
	if m.Enabled() || m.LatencyEnabled() || m.Value(MetricLoginSuccess) != 0 {
		t.Fatal("nil metrics should be inert")
	}
}

func TestMetricsConcurrentIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricSessionCreated)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricSessionCreated); got != 8000 {
		t.Fatalf("expected 8000, got %d", got)
	}
}

func TestMetricsSnapshotOmitsLatencyCounter(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	snap := m.Snapshot()

	if _, ok := snap.Counters[MetricVerifyLatency]; ok {
		t.Fatal("latency id must not appear as a counter")
	}
	if len(snap.Counters) != int(metricIDCount)-1 {
		t.Fatalf("expected %d counters, got %d", int(metricIDCount)-1, len(snap.Counters))
	}
	if _, ok := snap.Histograms[MetricVerifyLatency]; ok {
		t.Fatal("histogram must be absent when latency is disabled")
	}
}

func TestMetricsLatencyBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	durations := []time.Duration{
		10 * time.Microsecond,
		80 * time.Microsecond,
		200 * time.Microsecond,
		400 * time.Microsecond,
		900 * time.Microsecond,
		3 * time.Millisecond,
		20 * time.Millisecond,
		time.Second,
	}
	for _, d := range durations {
		m.Observe(MetricVerifyLatency, d)
	}
	m.Observe(MetricLoginSuccess, time.Second)

	buckets := m.Snapshot().Histograms[MetricVerifyLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	for i, n := range buckets {
		if n != 1 {
			t.Fatalf("bucket %d = %d, want 1", i, n)
		}
	}
}

func TestMetricMappings(t *testing.T) {
	statuses := map[token.Status]MetricID{
		token.StatusValid:             MetricVerifyValid,
		token.StatusAbsent:            MetricVerifyAbsent,
		token.StatusExpired:           MetricVerifyExpired,
		token.StatusTampered:          MetricVerifyTampered,
		token.StatusMalformed:         MetricVerifyMalformed,
		token.StatusAlgorithmMismatch: MetricVerifyAlgorithmMismatch,
	}
	for s, want := range statuses {
		if got := verifyMetric(s); got != want {
			t.Fatalf("verifyMetric(%v) = %v, want %v", s, got, want)
		}
	}

	outcomes := map[access.Outcome]MetricID{
		access.Allow:         MetricAccessAllowed,
		access.RedirectLogin: MetricAccessRedirectLogin,
		access.RedirectHome:  MetricAccessRedirectHome,
		access.RedirectRole:  MetricAccessRedirectRole,
		access.Deny:          MetricAccessDenied,
	}
	for o, want := range outcomes {
		if got := accessMetric(o); got != want {
			t.Fatalf("accessMetric(%v) = %v, want %v", o, got, want)
		}
	}
}

func TestEngineRecordsVerifyLatency(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.EnableLatencyHistograms = true
	e, _ := buildTestEngine(t, cfg)

	jar := cookie.NewMemoryJar()
	if _, err := e.Create(context.Background(), jar, testIdentity(role.User)); err != nil {
		t.Fatalf("create: %v", err)
	}
	e.Current(context.Background(), jar)
	e.Current(context.Background(), cookie.NewMemoryJar())

	var total uint64
	for _, n := range e.MetricsSnapshot().Histograms[MetricVerifyLatency] {
		total += n
	}
	if total != 1 {
		t.Fatalf("expected one latency sample for one verification, got %d", total)
	}
}
