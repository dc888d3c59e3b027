package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics live on a per-server registry so several servers can coexist in
// one process.
type metrics struct {
	registry *prometheus.Registry
	checks   *prometheus.CounterVec
	issued   prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linkseal",
			Subsystem: "signed_url",
			Name:      "checks_total",
			Help:      "Signed URL presentations by verification outcome",
		}, []string{"outcome"}),
		issued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "linkseal",
			Subsystem: "signed_url",
			Name:      "issued_total",
			Help:      "Signed URLs issued through the API",
		}),
	}
	m.registry.MustRegister(m.checks, m.issued, collectors.NewGoCollector())
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
