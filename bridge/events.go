package bridge

import (
	"encoding/json"

	"github.com/michaelgov-ctrl/countdown/timer"
)

type Event = timer.Event

type EventHandler func(event Event, c *Client) error

// inbound
const (
	EventGetStoreValue    = "get_store_value"
	EventPauseTimer       = "pause_timer"
	EventQuit             = "quit"
	EventResumeTimer      = "resume_timer"
	EventSendNotification = "send_notification"
	EventSetStoreValue    = "set_store_value"
	EventStartTimer       = "start_timer"
	EventStopTimer        = "stop_timer"
	EventWindowFocus      = "window_focus"
)

// outbound
const (
	EventCommandError = "command_error"
	EventCommandOK    = "command_ok"
	EventStoreValue   = "store_value"
	EventTimerStarted = "timer_started"
)

type requestHeader struct {
	RequestID string `json:"request_id,omitempty"`
}

type StartTimerEvent struct {
	requestHeader
	Seconds uint32 `json:"seconds"`
}

type TimerKeyEvent struct {
	requestHeader
	Key timer.Key `json:"key"`
}

type TimerStartedEvent struct {
	RequestID string    `json:"request_id,omitempty"`
	Key       timer.Key `json:"key"`
	Seconds   uint32    `json:"seconds"`
}

type CommandOKEvent struct {
	RequestID string    `json:"request_id,omitempty"`
	Command   string    `json:"command"`
	Key       timer.Key `json:"key,omitempty"`
}

type CommandErrorEvent struct {
	RequestID string `json:"request_id,omitempty"`
	Command   string `json:"command"`
	Kind      string `json:"kind"`
	Error     string `json:"error"`
}

type SendNotificationEvent struct {
	requestHeader
	Title string `json:"title"`
	Body  string `json:"body"`
}

type GetStoreValueEvent struct {
	requestHeader
	Key string `json:"key"`
}

type SetStoreValueEvent struct {
	requestHeader
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type StoreValueEvent struct {
	RequestID string          `json:"request_id,omitempty"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value,omitempty"`
	Found     bool            `json:"found"`
}

type WindowFocusEvent struct {
	Label   string `json:"label"`
	Focused bool   `json:"focused"`
}
