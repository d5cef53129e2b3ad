package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/michaelgov-ctrl/countdown/timer"
)

var ErrBadRequest = errors.New("bad request")

const storeTimeout = 5 * time.Second

type TimerCommands interface {
	Start(seconds uint32) timer.Key
	Pause(key timer.Key) error
	Resume(key timer.Key) error
	Stop(key timer.Key) error
}

type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
}

type Notifier interface {
	SendContext(ctx context.Context, title, body string) error
}

// HandleTimers exposes the timer command surface to clients.
func (h *Hub) HandleTimers(timers TimerCommands) {
	h.handle(EventStartTimer, func(event Event, c *Client) error {
		var req StartTimerEvent
		if err := decodePayload(event, &req); err != nil {
			return err
		}

		key := timers.Start(req.Seconds)

		return h.reply(c, EventTimerStarted, TimerStartedEvent{
			RequestID: req.RequestID,
			Key:       key,
			Seconds:   req.Seconds,
		})
	})

	h.handle(EventPauseTimer, h.timerKeyHandler(timers.Pause))
	h.handle(EventResumeTimer, h.timerKeyHandler(timers.Resume))
	h.handle(EventStopTimer, h.timerKeyHandler(timers.Stop))
}

func (h *Hub) timerKeyHandler(command func(timer.Key) error) EventHandler {
	return func(event Event, c *Client) error {
		var req TimerKeyEvent
		if err := decodePayload(event, &req); err != nil {
			return err
		}

		if req.Key == "" {
			return fmt.Errorf("%w: missing key", ErrBadRequest)
		}

		if err := command(req.Key); err != nil {
			return err
		}

		return h.reply(c, EventCommandOK, CommandOKEvent{
			RequestID: req.RequestID,
			Command:   event.Type,
			Key:       req.Key,
		})
	}
}

// HandleStore exposes get and set on the key-value store. A missing key is
// answered with found=false rather than an error.
func (h *Hub) HandleStore(store Store, notFound error) {
	h.handle(EventGetStoreValue, func(event Event, c *Client) error {
		var req GetStoreValueEvent
		if err := decodePayload(event, &req); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(h.ctx, storeTimeout)
		defer cancel()

		value, err := store.Get(ctx, req.Key)
		if err != nil && !errors.Is(err, notFound) {
			return err
		}

		return h.reply(c, EventStoreValue, StoreValueEvent{
			RequestID: req.RequestID,
			Key:       req.Key,
			Value:     value,
			Found:     err == nil,
		})
	})

	h.handle(EventSetStoreValue, func(event Event, c *Client) error {
		var req SetStoreValueEvent
		if err := decodePayload(event, &req); err != nil {
			return err
		}

		if req.Key == "" {
			return fmt.Errorf("%w: missing key", ErrBadRequest)
		}

		ctx, cancel := context.WithTimeout(h.ctx, storeTimeout)
		defer cancel()

		if err := store.Set(ctx, req.Key, req.Value); err != nil {
			return err
		}

		return h.reply(c, EventCommandOK, CommandOKEvent{
			RequestID: req.RequestID,
			Command:   event.Type,
		})
	})
}

func (h *Hub) HandleNotifications(notifier Notifier) {
	h.handle(EventSendNotification, func(event Event, c *Client) error {
		var req SendNotificationEvent
		if err := decodePayload(event, &req); err != nil {
			return err
		}

		if err := notifier.SendContext(h.ctx, req.Title, req.Body); err != nil {
			return err
		}

		return h.reply(c, EventCommandOK, CommandOKEvent{
			RequestID: req.RequestID,
			Command:   event.Type,
		})
	})
}

func (h *Hub) windowFocusHandler(event Event, c *Client) error {
	var req WindowFocusEvent
	if err := decodePayload(event, &req); err != nil {
		return err
	}

	if req.Focused {
		h.logger.Info("window focused", "client", c.id, "label", req.Label)
	}

	return nil
}

func (h *Hub) quitHandler(event Event, c *Client) error {
	h.logger.Info("quit requested", "client", c.id)
	go h.quit()

	return nil
}

func newCommandError(event Event, err error) CommandErrorEvent {
	var header requestHeader
	if len(event.Payload) > 0 {
		_ = json.Unmarshal(event.Payload, &header)
	}

	return CommandErrorEvent{
		RequestID: header.RequestID,
		Command:   event.Type,
		Kind:      errorKind(err),
		Error:     err.Error(),
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, timer.ErrTaskNotFound):
		return "task_not_found"
	case errors.Is(err, timer.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrUnknownEvent):
		return "bad_request"
	default:
		return "internal"
	}
}
