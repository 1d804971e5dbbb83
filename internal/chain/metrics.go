package chain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the chain's Prometheus counters. One Metrics value may be
// shared by many chains, e.g. every scenario of a test run.
type Metrics struct {
	Transactions     *prometheus.CounterVec
	Actions          *prometheus.CounterVec
	Assertions       prometheus.Counter
	ReplayMismatches prometheus.Counter
}

// Transaction status labels.
const (
	statusExecuted = "executed"
	statusFailed   = "failed"
)

// NewMetrics creates the counters and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transactions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mytoken",
			Subsystem: "chain",
			Name:      "transactions_total",
			Help:      "Pushed transactions by outcome.",
		}, []string{"status"}),
		Actions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mytoken",
			Subsystem: "chain",
			Name:      "actions_total",
			Help:      "Actions executed in committed transactions by receiver code id and action.",
		}, []string{"code", "action"}),
		Assertions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "mytoken",
			Subsystem: "chain",
			Name:      "assertion_failures_total",
			Help:      "Transactions aborted by a contract assertion.",
		}),
		ReplayMismatches: f.NewCounter(prometheus.CounterOpts{
			Namespace: "mytoken",
			Subsystem: "chain",
			Name:      "replay_mismatches_total",
			Help:      "Replayed transactions whose receipt differed from the log.",
		}),
	}
}
