package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	goSession "github.com/MrEthical07/goSession"
)

type fakeSource struct {
	snapshot goSession.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goSession.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }

func TestCollectNothingWhenMetricsDisabled(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters:   map[goSession.MetricID]uint64{},
			Histograms: map[goSession.MetricID][]uint64{},
		},
	})

	if n := testutil.CollectAndCount(exp); n != 0 {
		t.Fatalf("expected no series for disabled metrics, got %d", n)
	}
}

func TestCollectCountersAndHistogram(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricLoginSuccess:        7,
				goSession.MetricAccessRedirectLogin: 3,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricVerifyLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	expected := `
# HELP gosession_login_success_total Successful logins.
# TYPE gosession_login_success_total counter
gosession_login_success_total 7
# HELP gosession_audit_dropped_total Audit events dropped due to dispatcher backpressure.
# TYPE gosession_audit_dropped_total counter
gosession_audit_dropped_total 2
`
	if err := testutil.CollectAndCompare(exp, strings.NewReader(expected),
		"gosession_login_success_total", "gosession_audit_dropped_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(exp)
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var found bool
	for _, mf := range families {
		if mf.GetName() != "gosession_verify_latency_seconds" {
			continue
		}
		found = true
		h := mf.GetMetric()[0].GetHistogram()
		if h.GetSampleCount() != 36 {
			t.Fatalf("sample count = %d, want 36", h.GetSampleCount())
		}
		if got := h.GetBucket()[0].GetCumulativeCount(); got != 1 {
			t.Fatalf("first bucket = %d, want 1", got)
		}
		if got := h.GetBucket()[6].GetCumulativeCount(); got != 28 {
			t.Fatalf("last finite bucket = %d, want 28", got)
		}
	}
	if !found {
		t.Fatal("histogram not exported")
	}
}

func TestHandlerServesExposition(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters:   map[goSession.MetricID]uint64{goSession.MetricSessionCreated: 1},
			Histograms: map[goSession.MetricID][]uint64{},
		},
	})

	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected text exposition, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "gosession_session_created_total 1") {
		t.Fatalf("missing counter in body:\n%s", rec.Body.String())
	}
}

func TestExporterReadsEngine(t *testing.T) {
	cfg := goSession.DefaultConfig()
	cfg.Codec.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Metrics.Enabled = true
	engine, err := goSession.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	exp := NewExporter(engine)
	if got := testutil.CollectAndCount(exp, "gosession_verify_absent_total"); got != 1 {
		t.Fatalf("expected the absent counter series, got %d", got)
	}
}
