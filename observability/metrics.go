package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LendingMetrics tracks operation outcomes and proof verification results for
// the lending core. Counters are segmented by operation and outcome only;
// nothing here can leak a hidden balance.
type LendingMetrics struct {
	operations    *prometheus.CounterVec
	verifications *prometheus.CounterVec
}

var (
	lendingMetricsOnce sync.Once
	lendingRegistry    *LendingMetrics
)

// Lending returns the lazily-initialised metrics registry for the lending
// core.
func Lending() *LendingMetrics {
	lendingMetricsOnce.Do(func() {
		lendingRegistry = &LendingMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "zklend",
				Subsystem: "lending",
				Name:      "operations_total",
				Help:      "Count of lending operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "zklend",
				Subsystem: "zkproof",
				Name:      "verifications_total",
				Help:      "Count of proof verifications segmented by predicate and result.",
			}, []string{"predicate", "result"}),
		}
		prometheus.MustRegister(
			lendingRegistry.operations,
			lendingRegistry.verifications,
		)
	})
	return lendingRegistry
}

// ObserveOperation records the outcome of one lending operation.
func (m *LendingMetrics) ObserveOperation(op, outcome string) {
	if m == nil {
		return
	}
	op = strings.TrimSpace(op)
	if op == "" {
		return
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

// RecordVerification records one proof verification result for a predicate.
func (m *LendingMetrics) RecordVerification(predicate string, ok bool) {
	if m == nil {
		return
	}
	result := "rejected"
	if ok {
		result = "verified"
	}
	m.verifications.WithLabelValues(predicate, result).Inc()
}
