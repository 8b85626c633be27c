package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts how requests were answered
type Metrics struct {
	requests  *prometheus.CounterVec
	demotions prometheus.Counter
}

// NewMetrics creates the router counters and registers them on reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "serenity",
			Subsystem: "guest",
			Name:      "requests_total",
			Help:      "Requests answered, by source (local, demo or network).",
		}, []string{"source", "method", "path"}),
		demotions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "serenity",
			Subsystem: "guest",
			Name:      "demotions_total",
			Help:      "Times a 401 dropped the session back to guest mode.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.demotions)
	}
	return m
}

// observe records one answered request. path should be a route template or
// another low-cardinality label.
func (m *Metrics) observe(source Source, method, path string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(string(source), method, path).Inc()
}

func (m *Metrics) demoted() {
	if m == nil {
		return
	}
	m.demotions.Inc()
}
