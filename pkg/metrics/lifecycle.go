package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// LifecycleMetrics tracks event state changes, guard rejections and payouts.
type LifecycleMetrics struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	payouts     *prometheus.CounterVec
	payoutSol   prometheus.Histogram
}

// NewLifecycleMetrics registers lifecycle metrics on reg. A nil registerer
// yields a no-op recorder.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lifecycle",
		Name:      "transitions_total",
		Help:      "Event status transitions applied.",
	}, []string{"from", "to", "role"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lifecycle",
		Name:      "rejections_total",
		Help:      "Lifecycle requests refused, by kind and guard reason.",
	}, []string{"kind", "reason"})
	payouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payouts",
		Name:      "transfers_total",
		Help:      "ROI payout transfers by outcome.",
	}, []string{"outcome"})
	payoutSol := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "payouts",
		Name:      "transfer_sol",
		Help:      "Size of transferred ROI payouts in SOL.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	})
	reg.MustRegister(transitions, rejections, payouts, payoutSol)
	return &LifecycleMetrics{
		transitions: transitions,
		rejections:  rejections,
		payouts:     payouts,
		payoutSol:   payoutSol,
	}
}

func (m *LifecycleMetrics) IncTransition(from, to, role string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to), normalizeLabel(role)).Inc()
}

// IncRejection counts a refused request. reason is empty for non-guard kinds.
func (m *LifecycleMetrics) IncRejection(kind, reason string) {
	if m == nil || m.rejections == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	m.rejections.WithLabelValues(normalizeLabel(kind), reason).Inc()
}

// ObservePayout records one transfer attempt; amount is only observed on success.
func (m *LifecycleMetrics) ObservePayout(amount decimal.Decimal, err error) {
	if m == nil || m.payouts == nil {
		return
	}
	if err != nil {
		m.payouts.WithLabelValues("failed").Inc()
		return
	}
	m.payouts.WithLabelValues("transferred").Inc()
	m.payoutSol.Observe(amount.InexactFloat64())
}
