package timer

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultTickInterval  = time.Second
	DefaultPausedBackoff = 100 * time.Millisecond
)

type ManagerOptions struct {
	logger        *slog.Logger
	registry      *prometheus.Registry
	sink          EventSink
	tickInterval  time.Duration
	pausedBackoff time.Duration
	onFinish      func(Snapshot)
}

type ManagerOption func(*ManagerOptions)

func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *ManagerOptions) {
		m.logger = logger
	}
}

func WithMetricsRegistry(registry *prometheus.Registry) ManagerOption {
	return func(m *ManagerOptions) {
		m.registry = registry
	}
}

func WithEventSink(sink EventSink) ManagerOption {
	return func(m *ManagerOptions) {
		if sink != nil {
			m.sink = sink
		}
	}
}

func WithTickInterval(d time.Duration) ManagerOption {
	return func(m *ManagerOptions) {
		if d > 0 {
			m.tickInterval = d
		}
	}
}

// WithPausedBackoff bounds how long a paused loop sleeps between status
// checks when no resume signal arrives.
func WithPausedBackoff(d time.Duration) ManagerOption {
	return func(m *ManagerOptions) {
		if d > 0 {
			m.pausedBackoff = d
		}
	}
}

// WithFinishHook is called from the timer's own loop once it counts down to
// zero. It is not called for stopped timers.
func WithFinishHook(fn func(Snapshot)) ManagerOption {
	return func(m *ManagerOptions) {
		m.onFinish = fn
	}
}
