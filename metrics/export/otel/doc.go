// Package otel publishes goSession metrics through an OpenTelemetry Meter.
//
// [NewExporter] registers one Int64ObservableCounter per counter and one
// Int64ObservableGauge per cumulative latency bucket. A single callback reads
// Engine.MetricsSnapshot on each collection cycle. Instrument names match the
// Prometheus exporter.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
