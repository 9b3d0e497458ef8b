// Package metrics holds Prometheus collectors for the payment reconciliation flow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Settlement outcomes used as label values
const (
	OutcomeSettled      = "settled"
	OutcomeInsufficient = "insufficient_funds"
	OutcomeNoAccount    = "account_not_found"
	OutcomeNoPending    = "transaction_not_found"
	OutcomeInvalid      = "invalid_input"
	OutcomeFailed       = "store_failure"
)

type Metrics struct {
	transactionsCreated prometheus.Counter
	settlements         *prometheus.CounterVec
	settleDuration      prometheus.Histogram
	statusPolls         *prometheus.CounterVec
}

// New registers collectors in reg
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		transactionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "cardpay_transactions_created_total",
			Help: "Pending transactions created by kiosks",
		}),
		settlements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cardpay_settlements_total",
			Help: "Settle attempts from card readers, labeled by kind and outcome",
		}, []string{"kind", "outcome"}),
		settleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardpay_settle_duration_seconds",
			Help:    "Latency of settle attempts including row lock waits",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		statusPolls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cardpay_status_polls_total",
			Help: "Status polls, labeled by reported status",
		}, []string{"status"}),
	}
}

// NewNoOp returns metrics registered nowhere
func NewNoOp() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) TransactionCreated() {
	m.transactionsCreated.Inc()
}

func (m *Metrics) Settled(kind string, outcome string, took time.Duration) {
	m.settlements.WithLabelValues(kind, outcome).Inc()
	m.settleDuration.Observe(took.Seconds())
}

func (m *Metrics) StatusPolled(status string) {
	m.statusPolls.WithLabelValues(status).Inc()
}
