package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels evaluations that produced a verdict.
	OutcomeSuccess = "success"
	// OutcomeRejected labels requests rejected up front (unsupported jurisdiction, bad domain).
	OutcomeRejected = "rejected"
	// OutcomeError labels structural failures such as policy integrity defects.
	OutcomeError = "error"
)

var (
	evaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "verdict_engine",
			Name:      "evaluations_total",
			Help:      "Total number of evaluations handled, partitioned by domain and outcome.",
		},
		[]string{"domain", "outcome"},
	)

	verdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "verdict_engine",
			Name:      "verdicts_total",
			Help:      "Verdicts produced, partitioned by domain, jurisdiction and status.",
		},
		[]string{"domain", "jurisdiction", "status"},
	)

	evaluationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "verdict_engine",
			Name:      "evaluation_seconds",
			Help:      "Evaluation latency in seconds.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
	)

	policyLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "verdict_engine",
			Name:      "policy_loads_total",
			Help:      "Jurisdiction policy loads, partitioned by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register attaches verdict-engine collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		evaluationsTotal,
		verdictsTotal,
		evaluationDurationSeconds,
		policyLoadsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveEvaluation records an evaluation duration and outcome label.
func ObserveEvaluation(domain string, duration time.Duration, outcome string) {
	switch outcome {
	case OutcomeRejected, OutcomeError:
	default:
		outcome = OutcomeSuccess
	}
	evaluationsTotal.WithLabelValues(domain, outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	evaluationDurationSeconds.Observe(duration.Seconds())
}

// ObserveVerdict counts a produced verdict by status.
func ObserveVerdict(domain, jurisdiction, status string) {
	verdictsTotal.WithLabelValues(domain, jurisdiction, status).Inc()
}

// ObservePolicyLoad counts a policy load attempt.
func ObservePolicyLoad(outcome string) {
	if outcome != OutcomeError {
		outcome = OutcomeSuccess
	}
	policyLoadsTotal.WithLabelValues(outcome).Inc()
}
