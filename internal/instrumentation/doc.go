// Package instrumentation provides OpenTelemetry instrumentation for the
// calview server.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for HTTP requests, sessions, and calendar API calls
//   - Distributed tracing for request flows and remote calls
//   - Prometheus metrics export via /metrics endpoint on a dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - active_sessions: Gauge of active user sessions
//
// Calendar API Metrics:
//   - calendar_api_operations_total: Counter of remote calendar operations by operation and status
//   - calendar_api_operation_duration_seconds: Histogram of remote operation durations
//
// View Metrics:
//   - grid_renders_total: Counter of month-grid renders
//   - stale_fetches_discarded_total: Counter of fetch responses dropped by the generation check
//
// # Configuration
//
// Configuration comes from environment variables; see DefaultConfig. The
// provider degrades to no-ops when disabled, so callers never need nil
// checks around metric recording.
package instrumentation
