// Package metrics exposes directory activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
)

const namespace = "friendlyeats"

// Metrics implements application.Metrics on a dedicated registry.
type Metrics struct {
	registry            *prometheus.Registry
	reviewsSubmitted    *prometheus.CounterVec
	transactionConflict prometheus.Counter
	activeSubscriptions *prometheus.GaugeVec
	httpRequests        *prometheus.CounterVec
}

var _ application.Metrics = (*Metrics)(nil)

// New registers the directory metrics plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		reviewsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_submitted_total",
			Help:      "Review submissions by outcome.",
		}, []string{"result"}),
		transactionConflict: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rating_transaction_conflicts_total",
			Help:      "Rating transactions rejected by the store and retried.",
		}),
		activeSubscriptions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_subscriptions",
			Help:      "Open live queries by kind.",
		}, []string{"kind"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status class.",
		}, []string{"route", "code"}),
	}
}

func (m *Metrics) ReviewSubmitted(result string) {
	m.reviewsSubmitted.WithLabelValues(result).Inc()
}

func (m *Metrics) TransactionConflict() {
	m.transactionConflict.Inc()
}

func (m *Metrics) SubscriptionOpened(kind string) {
	m.activeSubscriptions.WithLabelValues(kind).Inc()
}

func (m *Metrics) SubscriptionClosed(kind string) {
	m.activeSubscriptions.WithLabelValues(kind).Dec()
}

// HTTPRequest counts one served request.
func (m *Metrics) HTTPRequest(route, code string) {
	m.httpRequests.WithLabelValues(route, code).Inc()
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
