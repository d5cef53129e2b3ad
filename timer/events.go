package timer

import (
	"encoding/json"
	"fmt"
)

type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const (
	EventTimeTick = "time_tick"
)

// EventSink receives tick and completion events for delivery to the UI layer.
// Emit must not block for long, a slow sink delays the emitting timer only.
type EventSink interface {
	Emit(event Event) error
}

type EventSinkFunc func(event Event) error

func (f EventSinkFunc) Emit(event Event) error {
	return f(event)
}

type discardSink struct{}

func (discardSink) Emit(Event) error { return nil }

func NewOutgoingEvent(t string, evt any) (Event, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal event: %v: %w", evt, err)
	}

	out := Event{
		Payload: data,
		Type:    t,
	}

	return out, nil
}

func newTickEvent(snap Snapshot) (Event, error) {
	return NewOutgoingEvent(EventTimeTick, snap)
}
