package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the loop's prometheus collectors.
type Metrics struct {
	steps           prometheus.Counter
	polls           *prometheus.CounterVec
	projected       prometheus.Counter
	touchedPools    prometheus.Histogram
	tradesFound     *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	optimizeSeconds prometheus.Histogram
	refreshSeconds  prometheus.Histogram
	driftedPools    prometheus.Counter
	sequence        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arbbot",
			Name:      "loop_steps_total",
			Help:      "Outer loop steps started.",
		}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbbot",
			Name:      "mempool_polls_total",
			Help:      "Mempool polls by outcome.",
		}, []string{"outcome"}),
		projected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arbbot",
			Name:      "projected_pool_updates_total",
			Help:      "Pool reserve updates applied from pending transactions.",
		}),
		touchedPools: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arbbot",
			Name:      "touched_pools",
			Help:      "Distinct pools updated by projection per loop step.",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		}),
		tradesFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbbot",
			Name:      "trades_found_total",
			Help:      "Profitable trades found, by trigger.",
		}, []string{"trigger"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbbot",
			Name:      "submissions_total",
			Help:      "Trade submissions by result.",
		}, []string{"result"}),
		optimizeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arbbot",
			Name:      "optimize_duration_seconds",
			Help:      "Time spent evaluating all paths.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
		refreshSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arbbot",
			Name:      "refresh_duration_seconds",
			Help:      "Time spent diffing and patching pools against chain state.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
		driftedPools: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arbbot",
			Name:      "refresh_drifted_pools_total",
			Help:      "Pools whose simulated reserves differed from chain state on refresh.",
		}),
		sequence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arbbot",
			Name:      "account_sequence",
			Help:      "Sequence number the next transaction is signed with.",
		}),
	}
	reg.MustRegister(m.steps, m.polls, m.projected, m.touchedPools, m.tradesFound, m.submissions, m.optimizeSeconds,
		m.refreshSeconds, m.driftedPools, m.sequence)
	return m
}
