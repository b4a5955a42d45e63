// Package metrics exposes the framework's Prometheus collectors.
//
// [Metrics] counts dispatched requests by controller, action and status,
// records their latency, tracks in-flight requests and counts process
// crashes by kind (uncaught exceptions and unhandled rejections).
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg, "anvil")
//	r.Handle("/metrics", metrics.Handler(reg))
package metrics
