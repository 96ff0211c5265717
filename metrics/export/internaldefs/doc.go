// Package internaldefs holds the metric names, help strings and bucket bounds
// shared by the Prometheus and OTel exporters.
//
// Names are derived from goSession.MetricID.String() with a gosession_ prefix, so
// both exporters always agree.
//
// # What this package must NOT do
//
//   - Import an exporter package.
//   - Perform I/O.
package internaldefs
