// Package prometheus exposes goSession engine metrics through client_golang.
//
// [Exporter] is a prometheus.Collector that reads Engine.MetricsSnapshot on every
// scrape. Counters are named gosession_*_total; the verification latency histogram is
// gosession_verify_latency_seconds. [Exporter.Handler] serves a private registry, so
// nothing is registered globally unless the caller does it.
package prometheus
