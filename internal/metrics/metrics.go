// Package metrics wires the server's request/error/connection/key counters
// into Prometheus. These counters are the same numbers INFO and STATS
// report; the Prometheus registry is just another reader of them.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the server-wide counters. All fields are safe for
// concurrent use — Prometheus's own types are internally synchronized — so
// handlers on the single reactor goroutine and the reaper goroutine can
// both increment them without an extra lock.
type Metrics struct {
	Requests    prometheus.Counter
	Errors      prometheus.Counter
	Connections prometheus.Gauge
	Keys        prometheus.Gauge
}

// New constructs and registers the counters on reg. Pass
// prometheus.NewRegistry() for an isolated registry (tests) or
// prometheus.DefaultRegisterer to expose them on the default /metrics
// handler.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kvstored",
			Name:      "requests_total",
			Help:      "Total commands dispatched across all connections.",
		}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kvstored",
			Name:      "errors_total",
			Help:      "Total commands that produced a -ERR reply.",
		}),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kvstored",
			Name:      "connections",
			Help:      "Currently active client connections.",
		}),
		Keys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kvstored",
			Name:      "keys",
			Help:      "Number of keys currently stored.",
		}),
	}
	reg.MustRegister(m.Requests, m.Errors, m.Connections, m.Keys)
	return m
}
