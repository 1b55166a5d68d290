package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
)

var (
	// ErrNilMeter is returned without a meter.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned without an engine or source.
	ErrNilSource = errors.New("nil metrics source")
)

// Instrument names outside the counter families.
const (
	VerifyLatencyBucketsName = "gosession.verify.latency.buckets"
	VerifyLatencyCountName   = "gosession.verify.latency.count"
	AuditDroppedName         = "gosession.audit.dropped"
)

// MetricsSource is the read side of an Engine.
type MetricsSource interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	AuditDropped() uint64
}

// observation binds one engine counter to its instrument and attribute set.
type observation struct {
	id    goSession.MetricID
	inst  metric.Int64ObservableCounter
	attrs metric.ObserveOption
}

// Exporter publishes engine counters as attribute-keyed observable instruments and keeps
// the callback registered until Close.
type Exporter struct {
	source       MetricsSource
	registration metric.Registration

	counters     []observation
	buckets      metric.Int64ObservableGauge
	bucketAttrs  [8]metric.ObserveOption
	count        metric.Int64ObservableGauge
	auditDropped metric.Int64ObservableCounter
}

// NewExporter registers instruments on meter that read from engine.
func NewExporter(meter metric.Meter, engine *goSession.Engine) (*Exporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewExporterFromSource(meter, engine)
}

// NewExporterFromSource registers instruments on meter that read from source.
func NewExporterFromSource(meter metric.Meter, source MetricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source}
	families := make(map[string]metric.Int64ObservableCounter, len(internaldefs.Families))
	keys := make(map[string]string, len(internaldefs.Families))
	observables := make([]metric.Observable, 0, len(internaldefs.Families)+3)

	for _, f := range internaldefs.Families {
		inst, err := meter.Int64ObservableCounter(f.Name, metric.WithDescription(f.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", f.Name, err)
		}
		families[f.Name] = inst
		keys[f.Name] = f.AttrKey
		observables = append(observables, inst)
	}

	for _, def := range internaldefs.CounterDefs {
		inst, ok := families[def.Family]
		if !ok {
			return nil, fmt.Errorf("counter %s: unknown family %q", def.Name, def.Family)
		}
		var set attribute.Set
		if key := keys[def.Family]; key != "" {
			set = attribute.NewSet(attribute.String(key, def.Value))
		}
		e.counters = append(e.counters, observation{id: def.ID, inst: inst, attrs: metric.WithAttributeSet(set)})
	}

	var err error
	e.buckets, err = meter.Int64ObservableGauge(VerifyLatencyBucketsName,
		metric.WithDescription("Cumulative verification latency samples at or below the le bound (seconds)."))
	if err != nil {
		return nil, fmt.Errorf("create latency buckets: %w", err)
	}
	for i, le := range internaldefs.BucketLabels() {
		e.bucketAttrs[i] = metric.WithAttributeSet(attribute.NewSet(attribute.String("le", le)))
	}
	e.count, err = meter.Int64ObservableGauge(VerifyLatencyCountName,
		metric.WithDescription("Verification latency samples recorded."))
	if err != nil {
		return nil, fmt.Errorf("create latency count: %w", err)
	}
	e.auditDropped, err = meter.Int64ObservableCounter(AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	observables = append(observables, e.buckets, e.count, e.auditDropped)

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()
	dropped := e.source.AuditDropped()
	// A disabled engine reports an empty snapshot.
	if len(snap.Counters) == 0 && len(snap.Histograms) == 0 && dropped == 0 {
		return nil
	}
	for _, c := range e.counters {
		o.ObserveInt64(c.inst, int64(snap.Counters[c.id]), c.attrs)
	}

	if raw, ok := snap.Histograms[goSession.MetricVerifyLatency]; ok {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, n := range cumulative {
			o.ObserveInt64(e.buckets, int64(n), e.bucketAttrs[i])
		}
		o.ObserveInt64(e.count, int64(cumulative[len(cumulative)-1]))
	}

	o.ObserveInt64(e.auditDropped, int64(dropped))
	return nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
