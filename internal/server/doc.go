// Package server hosts the optional Prometheus metrics endpoint.
//
// MetricsServer exposes /metrics (via promhttp, reading the default registry
// the otel prometheus exporter writes to) and /healthz on a dedicated
// address. It is started by the chat, ask and serve commands when --metrics-addr
// is set.
package server
