package timer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Manager is the task registry and the command surface over it. One Manager
// is built at application start and handed to whatever issues commands.
type Manager struct {
	ctx context.Context

	nextID atomic.Uint64

	tasks   map[Key]*State
	tasksMu sync.RWMutex

	loops sync.WaitGroup

	ManagerOptions
	metrics *ManagerMetrics
}

// NewManager returns a Manager whose loops stop when ctx is cancelled.
func NewManager(ctx context.Context, opts ...ManagerOption) *Manager {
	m := &Manager{
		ctx:     ctx,
		tasks:   make(map[Key]*State),
		metrics: &ManagerMetrics{},
	}

	defaults := &ManagerOptions{
		logger:        slog.New(slog.NewTextHandler(os.Stdout, nil)),
		registry:      prometheus.NewRegistry(),
		sink:          discardSink{},
		tickInterval:  DefaultTickInterval,
		pausedBackoff: DefaultPausedBackoff,
	}

	for _, opt := range opts {
		opt(defaults)
	}

	m.ManagerOptions = *defaults

	m.registerManagerMetrics()

	return m
}

// Start registers a running countdown of the given length and spawns its loop.
func (m *Manager) Start(seconds uint32) Key {
	key := m.newKey()
	state := newState(key, seconds)

	m.tasksMu.Lock()
	m.tasks[key] = state
	m.tasksMu.Unlock()

	m.metrics.timersStarted.Inc()
	m.metrics.timersCurrent.Inc()
	m.logger.Debug("started timer", "key", key, "seconds", seconds)

	m.loops.Add(1)
	go m.run(state)

	return key
}

func (m *Manager) Pause(key Key) error {
	state, ok := m.get(key)
	if !ok {
		return wrapKey(ErrTaskNotFound, key)
	}

	state.gate.Lock()
	defer state.gate.Unlock()

	if !state.transition(Running, Paused) {
		return fmt.Errorf("%w: %s is %s, not running", ErrInvalidTransition, key, state.Status())
	}

	m.logger.Debug("paused timer", "key", key, "seconds", state.Seconds())

	return nil
}

func (m *Manager) Resume(key Key) error {
	state, ok := m.get(key)
	if !ok {
		return wrapKey(ErrTaskNotFound, key)
	}

	if !state.transition(Paused, Running) {
		return fmt.Errorf("%w: %s is %s, not paused", ErrInvalidTransition, key, state.Status())
	}

	state.signalWake()
	m.logger.Debug("resumed timer", "key", key, "seconds", state.Seconds())

	return nil
}

// Stop finishes the timer and removes it from the registry. The loop notices
// on its next wake up; no tick is emitted for key once Stop returns.
func (m *Manager) Stop(key Key) error {
	state, ok := m.take(key)
	if !ok {
		return wrapKey(ErrTaskNotFound, key)
	}

	state.gate.Lock()
	prev := state.finish()
	state.gate.Unlock()

	state.signalDone()

	// the loop may have reached zero between take and finish
	if prev != Finished {
		m.finished(finishStopped)
	}

	m.logger.Debug("stopped timer", "key", key, "previous", prev)

	return nil
}

func (m *Manager) Lookup(key Key) (Snapshot, bool) {
	state, ok := m.get(key)
	if !ok {
		return Snapshot{}, false
	}

	return state.Snapshot(), true
}

func (m *Manager) Keys() []Key {
	m.tasksMu.RLock()
	keys := make([]Key, 0, len(m.tasks))
	for k := range m.tasks {
		keys = append(keys, k)
	}
	m.tasksMu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})

	return keys
}

func (m *Manager) Len() int {
	m.tasksMu.RLock()
	defer m.tasksMu.RUnlock()

	return len(m.tasks)
}

// Wait blocks until every loop has exited. Loops only exit on their own
// when they finish, so callers normally cancel the Manager's context first.
func (m *Manager) Wait() {
	m.loops.Wait()
}

func (m *Manager) newKey() Key {
	return Key(fmt.Sprintf("task_%d", m.nextID.Add(1)-1))
}

func (m *Manager) get(key Key) (*State, bool) {
	m.tasksMu.RLock()
	defer m.tasksMu.RUnlock()

	state, ok := m.tasks[key]
	return state, ok
}

func (m *Manager) take(key Key) (*State, bool) {
	m.tasksMu.Lock()
	defer m.tasksMu.Unlock()

	state, ok := m.tasks[key]
	if !ok {
		return nil, false
	}

	delete(m.tasks, key)
	m.metrics.timersCurrent.Dec()

	return state, true
}

// remove tolerates the entry already being gone, stop and the loop race here.
func (m *Manager) remove(key Key) {
	m.take(key)
}
