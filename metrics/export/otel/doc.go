// Package otel binds goSession engine metrics to an OpenTelemetry Meter.
//
// Counters are grouped into a few observable instruments keyed by an attribute, for
// example gosession.verifications{result="expired"} or
// gosession.access.decisions{outcome="redirect_role"}. Verification latency is published
// as cumulative gauges keyed by "le" plus a sample count. A single callback reads
// Engine.MetricsSnapshot on each collection. The caller owns the MeterProvider.
package otel
