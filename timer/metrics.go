package timer

import "github.com/prometheus/client_golang/prometheus"

const (
	finishCompleted = "completed"
	finishStopped   = "stopped"
	finishAborted   = "aborted"
)

type ManagerMetrics struct {
	timersStarted    prometheus.Counter
	timersCurrent    prometheus.Gauge
	timersFinished   *prometheus.CounterVec
	ticksEmitted     prometheus.Counter
	emissionFailures prometheus.Counter
}

func (m *Manager) registerManagerMetrics() {
	m.metrics.timersStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "countdown_timers_started_total",
			Help: "Total number of timers the manager has started",
		},
	)

	m.metrics.timersCurrent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "countdown_timers_current",
			Help: "Current number of timers in the registry",
		},
	)

	m.metrics.timersFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "countdown_timers_finished_total",
			Help: "Total number of timers that left the registry by reason",
		},
		[]string{
			"reason",
		},
	)

	m.metrics.ticksEmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "countdown_ticks_emitted_total",
			Help: "Total number of tick events accepted by the event sink",
		},
	)

	m.metrics.emissionFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "countdown_emission_failures_total",
			Help: "Total number of tick events the event sink refused",
		},
	)

	m.registry.MustRegister(
		m.metrics.timersStarted,
		m.metrics.timersCurrent,
		m.metrics.timersFinished,
		m.metrics.ticksEmitted,
		m.metrics.emissionFailures,
	)
}

func (m *Manager) finished(reason string) {
	m.metrics.timersFinished.With(prometheus.Labels{"reason": reason}).Inc()
}
