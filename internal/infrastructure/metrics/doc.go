// Package metrics publishes SignalFlow runtime counters via expvar. Metrics
// are exposed on /debug/vars by any process that serves the default HTTP mux,
// and the signalflow-server command renders them in Prometheus text format.
package metrics
