// Package metrics provides Prometheus instrumentation for the alltube service.
//
// All metrics are prefixed with "alltube_" to avoid naming collisions with
// other applications. Metrics are registered with the default Prometheus
// registry via promauto; expose them by mounting promhttp.Handler() on the
// /metrics endpoint.
//
// The metrics cover four areas:
//   - HTTP request handling (count, duration, in-flight)
//   - Extractor invocations (count by mode and status, duration)
//   - Streaming pipelines (count by kind and status, bytes served, in-flight)
//   - Playlist archives (entries written vs skipped)
package metrics
