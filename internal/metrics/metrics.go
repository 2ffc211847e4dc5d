package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crossborder"

var (
	LedgerRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_requests_total",
		Help:      "Ledger API calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	LedgerLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ledger_request_duration_seconds",
		Help:      "Ledger API call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	SagaSteps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "saga_steps_total",
		Help:      "Acceptance saga steps by step name and outcome.",
	}, []string{"step", "outcome"})

	SensitiveEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sensitive_cache_entries",
		Help:      "Sensitive bundles currently staged off-ledger.",
	})
)

// Register adds all collectors to reg. Calling it twice on the same
// registerer returns the AlreadyRegistered error from prometheus.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{LedgerRequests, LedgerLatency, SagaSteps, SensitiveEntries} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
