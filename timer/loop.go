package timer

import (
	"errors"
	"time"
)

type stepResult int

const (
	stepTicked stepResult = iota
	stepSkipped
	stepCompleted
)

// run drives one State until it is Finished. It is the only writer of the
// remaining seconds and always deregisters its key on the way out.
func (m *Manager) run(s *State) {
	defer m.loops.Done()

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("timer loop panicked", "key", s.key, "panic", r)
			if s.finish() != Finished {
				m.finished(finishAborted)
			}
		}

		m.remove(s.key)
	}()

	for {
		switch s.Status() {
		case Finished:
			return
		case Paused:
			if !m.waitPaused(s) {
				m.abort(s)
				return
			}
		case Running:
			switch m.step(s) {
			case stepCompleted:
				m.finished(finishCompleted)
				if m.onFinish != nil {
					m.onFinish(Snapshot{Key: s.key, Status: Finished})
				}
				return
			case stepSkipped:
				continue
			}

			if !m.sleep(s, m.tickInterval) {
				m.abort(s)
				return
			}
		}
	}
}

// step emits the current value then decrements it, or completes the timer
// when there is nothing left. First tick reports n, the last reports 1.
func (m *Manager) step(s *State) stepResult {
	s.gate.Lock()
	defer s.gate.Unlock()

	if s.Status() != Running {
		return stepSkipped
	}

	seconds := s.Seconds()
	if seconds == 0 {
		if !s.transition(Running, Finished) {
			return stepSkipped
		}

		m.remove(s.key)
		m.emit(Snapshot{Key: s.key, Seconds: 0, Status: Finished})
		m.logger.Info("timer finished", "key", s.key)

		return stepCompleted
	}

	m.emit(Snapshot{Key: s.key, Seconds: seconds, Status: Running})
	s.decrement()

	return stepTicked
}

// emit never fails the loop, a refused tick is dropped.
func (m *Manager) emit(snap Snapshot) {
	event, err := newTickEvent(snap)
	if err != nil {
		m.logger.Error("failed to build tick event", "key", snap.Key, "error", err)
		return
	}

	if err := m.sink.Emit(event); err != nil {
		m.metrics.emissionFailures.Inc()

		if errors.Is(err, ErrEmissionFailure) {
			m.logger.Debug("dropped tick", "key", snap.Key, "seconds", snap.Seconds, "error", err)
		} else {
			m.logger.Warn("event sink error", "key", snap.Key, "seconds", snap.Seconds, "error", err)
		}
		return
	}

	m.metrics.ticksEmitted.Inc()
}

// sleep waits one tick, returning early if the timer is stopped. It reports
// false only when the Manager is shutting down.
func (m *Manager) sleep(s *State, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-s.done:
		return true
	case <-m.ctx.Done():
		return false
	}
}

// waitPaused returns on resume, stop, or after the backoff interval,
// whichever comes first.
func (m *Manager) waitPaused(s *State) bool {
	t := time.NewTimer(m.pausedBackoff)
	defer t.Stop()

	select {
	case <-s.wake:
		return true
	case <-s.done:
		return true
	case <-t.C:
		return true
	case <-m.ctx.Done():
		return false
	}
}

func (m *Manager) abort(s *State) {
	s.gate.Lock()
	prev := s.finish()
	s.gate.Unlock()

	if prev != Finished {
		m.finished(finishAborted)
		m.logger.Debug("timer loop aborted", "key", s.key, "seconds", s.Seconds())
	}
}
