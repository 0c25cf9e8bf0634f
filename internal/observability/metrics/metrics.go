package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for scheduling flows.
type SchedulingMetrics struct {
	attemptsTotal   *prometheus.CounterVec
	conflictsTotal  *prometheus.CounterVec
	attemptLatency  *prometheus.HistogramVec
	lifecycleEvents *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		attemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talentflow",
			Subsystem: "scheduling",
			Name:      "attempts_total",
			Help:      "Total schedule attempts by outcome",
		}, []string{"outcome"}),
		conflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talentflow",
			Subsystem: "scheduling",
			Name:      "conflicts_total",
			Help:      "Lost slot races, by whether alternatives were found",
		}, []string{"alternatives_found"}),
		attemptLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "talentflow",
			Subsystem: "scheduling",
			Name:      "attempt_latency_seconds",
			Help:      "Latency of schedule attempts",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		lifecycleEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talentflow",
			Subsystem: "scheduling",
			Name:      "lifecycle_events_total",
			Help:      "Reservation lifecycle transitions",
		}, []string{"transition"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.attemptsTotal, m.conflictsTotal, m.attemptLatency, m.lifecycleEvents)
	return m
}

func (m *SchedulingMetrics) ObserveAttempt(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.attemptsTotal.WithLabelValues(outcome).Inc()
	m.attemptLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *SchedulingMetrics) ObserveConflict(alternativesFound bool) {
	if m == nil {
		return
	}
	label := "false"
	if alternativesFound {
		label = "true"
	}
	m.conflictsTotal.WithLabelValues(label).Inc()
}

func (m *SchedulingMetrics) ObserveLifecycle(transition string) {
	if m == nil {
		return
	}
	m.lifecycleEvents.WithLabelValues(transition).Inc()
}
