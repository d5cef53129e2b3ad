package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/michaelgov-ctrl/countdown/timer"
	"github.com/prometheus/client_golang/prometheus"
)

var ErrUnknownEvent = errors.New("there is no such event type")

// Hub connects UI clients to the application. Outbound it is the timer
// event sink, fanning events out to every client; inbound it routes command
// events to the registered handlers and replies to the sender.
type Hub struct {
	ctx context.Context

	clients   ClientList
	clientsMu sync.RWMutex

	handlers   map[string]EventHandler
	handlersMu sync.RWMutex

	HubOptions
	metrics *HubMetrics
}

func NewHub(ctx context.Context, opts ...HubOption) *Hub {
	h := &Hub{
		ctx:      ctx,
		clients:  make(ClientList),
		handlers: make(map[string]EventHandler),
		metrics:  &HubMetrics{},
	}

	defaults := &HubOptions{
		logger:   slog.New(slog.NewTextHandler(os.Stdout, nil)),
		registry: prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(defaults)
	}

	h.HubOptions = *defaults

	h.registerHubMetrics()
	h.registerEventHandlers()

	return h
}

func (h *Hub) registerEventHandlers() {
	h.handle(EventWindowFocus, h.windowFocusHandler)

	if h.quit != nil {
		h.handle(EventQuit, h.quitHandler)
	}
}

func (h *Hub) handle(eventType string, handler EventHandler) {
	h.handlersMu.Lock()
	defer h.handlersMu.Unlock()

	h.handlers[eventType] = handler
}

func (h *Hub) addClient(c *Client) {
	h.metrics.totalClients.Inc()
	h.logger.Debug("new client", "client", c.id)

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	h.metrics.currentClients.Set(float64(len(h.clients)))
}

func (h *Hub) removeClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		h.logger.Debug("removed client", "client", c.id)

		c.connection.Close()
		close(c.done)
		delete(h.clients, c)
		h.metrics.currentClients.Set(float64(len(h.clients)))
	}
}

func (h *Hub) Clients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	return len(h.clients)
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("new connection", "origin", r.RemoteAddr)

	conn, err := h.upgrader().Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error(err.Error())
		return
	}

	client := NewClient(conn, h)

	h.addClient(client)

	go client.readEvents(h.logger)
	go client.writeEvents(h.logger)
}

func (h *Hub) routeEvent(event Event, c *Client) error {
	h.handlersMu.RLock()
	handler, ok := h.handlers[event.Type]
	h.handlersMu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event.Type)
	}

	return handler(event, c)
}

// Emit delivers event to every connected client without blocking. It fails
// with timer.ErrEmissionFailure when no client accepted the event.
func (h *Hub) Emit(event Event) error {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	if len(h.clients) == 0 {
		return fmt.Errorf("%w: no connected clients", timer.ErrEmissionFailure)
	}

	var delivered int
	for c := range h.clients {
		if c.send(event) {
			delivered++
			continue
		}

		h.metrics.droppedEvents.Inc()
		h.logger.Debug("client egress full, dropping event", "client", c.id, "type", event.Type)
	}

	if delivered == 0 {
		return fmt.Errorf("%w: %d clients refused %s", timer.ErrEmissionFailure, len(h.clients), event.Type)
	}

	return nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range clients {
		h.removeClient(c)
	}
}

func (h *Hub) reply(c *Client, eventType string, payload any) error {
	out, err := timer.NewOutgoingEvent(eventType, payload)
	if err != nil {
		return err
	}

	if !c.send(out) {
		h.metrics.droppedEvents.Inc()
		return fmt.Errorf("%w: reply %s to client %s", timer.ErrEmissionFailure, eventType, c.id)
	}

	return nil
}

func decodePayload(event Event, v any) error {
	if len(event.Payload) == 0 {
		return fmt.Errorf("%w: empty payload", ErrBadRequest)
	}

	if err := json.Unmarshal(event.Payload, v); err != nil {
		return fmt.Errorf("%w: bad payload in request: %v", ErrBadRequest, err)
	}

	return nil
}

type HubMetrics struct {
	totalClients   prometheus.Counter
	currentClients prometheus.Gauge
	droppedEvents  prometheus.Counter
}

func (h *Hub) registerHubMetrics() {
	h.metrics.totalClients = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_clients_total",
			Help: "Total number of clients the bridge has handled",
		},
	)

	h.metrics.currentClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_clients_current",
			Help: "Current number of connected bridge clients",
		},
	)

	h.metrics.droppedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_events_dropped_total",
			Help: "Total number of events dropped because a client egress was full",
		},
	)

	h.registry.MustRegister(h.metrics.totalClients, h.metrics.currentClients, h.metrics.droppedEvents)
}
