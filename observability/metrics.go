package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// FlowMetrics records transaction-flow activity for the orchestrator.
type FlowMetrics struct {
	started            *prometheus.CounterVec
	failures           *prometheus.CounterVec
	confirmations      *prometheus.CounterVec
	simulationsBlocked prometheus.Counter
	timeouts           prometheus.Counter
	duration           *prometheus.HistogramVec
}

var (
	flowMetricsOnce sync.Once
	flowRegistry    *FlowMetrics
)

// Flow returns the lazily-initialised flow metrics registry.
func Flow() *FlowMetrics {
	flowMetricsOnce.Do(func() {
		flowRegistry = &FlowMetrics{
			started: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "loanmesh",
				Subsystem: "txflow",
				Name:      "flows_started_total",
				Help:      "Transaction flows started, segmented by action.",
			}, []string{"action"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "loanmesh",
				Subsystem: "txflow",
				Name:      "flow_failures_total",
				Help:      "Transaction flows that ended in failure, segmented by action and reason.",
			}, []string{"action", "reason"}),
			confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "loanmesh",
				Subsystem: "txflow",
				Name:      "confirmations_total",
				Help:      "Transaction flows confirmed on-chain, segmented by action.",
			}, []string{"action"}),
			simulationsBlocked: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "loanmesh",
				Subsystem: "txflow",
				Name:      "simulations_blocked_total",
				Help:      "Submissions blocked by a failed dry-run simulation.",
			}),
			timeouts: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "loanmesh",
				Subsystem: "txflow",
				Name:      "confirmation_timeouts_total",
				Help:      "Confirmation polls that exceeded their upper bound.",
			}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "loanmesh",
				Subsystem: "txflow",
				Name:      "flow_duration_seconds",
				Help:      "Wall-clock duration of completed transaction flows.",
				Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
			}, []string{"action"}),
		}
		prometheus.MustRegister(
			flowRegistry.started,
			flowRegistry.failures,
			flowRegistry.confirmations,
			flowRegistry.simulationsBlocked,
			flowRegistry.timeouts,
			flowRegistry.duration,
		)
	})
	return flowRegistry
}

// ObserveStart counts a flow entering its first step.
func (m *FlowMetrics) ObserveStart(action string) {
	if m == nil {
		return
	}
	m.started.WithLabelValues(action).Inc()
}

// ObserveFailure counts a terminal flow failure.
func (m *FlowMetrics) ObserveFailure(action, reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(action, reason).Inc()
}

// ObserveConfirmation counts a confirmed flow.
func (m *FlowMetrics) ObserveConfirmation(action string) {
	if m == nil {
		return
	}
	m.confirmations.WithLabelValues(action).Inc()
}

// ObserveSimulationBlocked counts a submission blocked by a failed dry run.
func (m *FlowMetrics) ObserveSimulationBlocked() {
	if m == nil {
		return
	}
	m.simulationsBlocked.Inc()
}

// ObserveTimeout counts a confirmation poll that hit its bound.
func (m *FlowMetrics) ObserveTimeout() {
	if m == nil {
		return
	}
	m.timeouts.Inc()
}

// ObserveDuration records the wall-clock duration of a finished flow.
func (m *FlowMetrics) ObserveDuration(action string, seconds float64) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(action).Observe(seconds)
}
