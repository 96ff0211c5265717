// Package prometheus renders goSession metrics in Prometheus text exposition format.
//
// [NewExporter] wraps a goSession.Engine and [Exporter.Handler] serves the text at
// whatever path the caller mounts (sessiond uses /metrics). Counters are named
// gosession_<metric>_total; the validate latency histogram is
// gosession_validate_latency_seconds and only appears when latency histograms are on.
//
// # What this package must NOT do
//
//   - Register anything in a global registry.
//   - Mutate engine state.
package prometheus
