package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "playcash"

// Metrics owns a private registry. All methods are safe on a nil receiver.
type Metrics struct {
	registry          *prometheus.Registry
	requestsSubmitted *prometheus.CounterVec
	requestsResolved  *prometheus.CounterVec
	ledgerEntries     *prometheus.CounterVec
	reconcileChecked  prometheus.Counter
	reconcileMismatch prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "money_requests_submitted_total",
			Help:      "Money requests submitted by users.",
		}, []string{"direction"}),
		requestsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "money_requests_resolved_total",
			Help:      "Money requests moved to a terminal status.",
		}, []string{"direction", "status"}),
		ledgerEntries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_entries_total",
			Help:      "Ledger entries appended, by kind.",
		}, []string{"kind"}),
		reconcileChecked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_accounts_checked_total",
			Help:      "Accounts compared against their ledger.",
		}),
		reconcileMismatch: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reconcile_mismatched_accounts",
			Help:      "Accounts whose balances disagreed with the ledger in the last pass.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RequestSubmitted(direction string) {
	if m == nil {
		return
	}
	m.requestsSubmitted.WithLabelValues(direction).Inc()
}

func (m *Metrics) RequestResolved(direction, status string) {
	if m == nil {
		return
	}
	m.requestsResolved.WithLabelValues(direction, status).Inc()
}

func (m *Metrics) LedgerEntry(kind string) {
	if m == nil {
		return
	}
	m.ledgerEntries.WithLabelValues(kind).Inc()
}

func (m *Metrics) ReconcileChecked(n int) {
	if m == nil {
		return
	}
	m.reconcileChecked.Add(float64(n))
}

func (m *Metrics) ReconcileMismatches(n int) {
	if m == nil {
		return
	}
	m.reconcileMismatch.Set(float64(n))
}
