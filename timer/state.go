package timer

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrUnknownStatus = errors.New("unknown timer status")

type Key string

type Status uint32

const (
	Paused Status = iota
	Running
	Finished
)

func (s Status) String() string {
	switch s {
	case Paused:
		return "paused"
	case Running:
		return "running"
	default:
		return "finished"
	}
}

func StatusFromString(str string) (Status, error) {
	switch str {
	case "paused":
		return Paused, nil
	case "running":
		return Running, nil
	case "finished":
		return Finished, nil
	default:
		return Finished, ErrUnknownStatus
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}

	tmp, err := StatusFromString(str)
	if err != nil {
		return err
	}

	*s = tmp
	return nil
}

// State is the shared record for one countdown. The two fields are
// independently atomic; nothing requires them to change together.
type State struct {
	key     Key
	seconds atomic.Uint32
	status  atomic.Uint32

	// gate orders a loop step against pause and stop so that no tick is
	// emitted after either returns. Readers never take it.
	gate sync.Mutex

	// wake carries at most one pending resume signal to a paused loop
	wake chan struct{}

	// done is closed exactly once when the timer is stopped
	done     chan struct{}
	doneOnce sync.Once
}

func newState(key Key, seconds uint32) *State {
	s := &State{
		key:  key,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	s.seconds.Store(seconds)
	s.status.Store(uint32(Running))

	return s
}

func (s *State) Key() Key {
	return s.key
}

func (s *State) Seconds() uint32 {
	return s.seconds.Load()
}

func (s *State) Status() Status {
	return Status(s.status.Load())
}

func (s *State) transition(from, to Status) bool {
	return s.status.CompareAndSwap(uint32(from), uint32(to))
}

// finish forces Finished and reports the status it replaced.
func (s *State) finish() Status {
	return Status(s.status.Swap(uint32(Finished)))
}

func (s *State) decrement() {
	s.seconds.Add(^uint32(0))
}

func (s *State) signalWake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *State) signalDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Key:     s.key,
		Seconds: s.Seconds(),
		Status:  s.Status(),
	}
}

// Snapshot is a point in time copy of a State, it is also the tick payload.
type Snapshot struct {
	Key     Key    `json:"key"`
	Seconds uint32 `json:"seconds"`
	Status  Status `json:"status"`
}
