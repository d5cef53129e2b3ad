package bridge

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	pongWait     = 10 * time.Second
	pingInterval = (pongWait * 9) / 10 // 90% of pongWait
)

const egressBuffer = 64

type Client struct {
	id         string
	connection *websocket.Conn
	hub        *Hub

	// egress is used to avoid concurrent writes on the websocket connection for events
	egress chan Event
	done   chan struct{}
}

type ClientList map[*Client]bool

func NewClient(conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		id:         uuid.NewString(),
		connection: conn,
		hub:        hub,
		egress:     make(chan Event, egressBuffer),
		done:       make(chan struct{}),
	}
}

// send queues event for the writer without blocking.
func (c *Client) send(event Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.egress <- event:
		return true
	default:
		return false
	}
}

func (c *Client) readEvents(logger *slog.Logger) {
	defer func() {
		c.hub.removeClient(c)
	}()

	if err := c.connection.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Error(err.Error())
		return
	}

	// commands are small, store values are the largest payloads
	c.connection.SetReadLimit(64 * 1024)
	c.connection.SetPongHandler(c.pongHandler)

	for {
		_, payload, err := c.connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("error reading message", "error", err)
			}
			break
		}

		var req Event
		logger.Debug("received payload", "client", c.id, "payload", string(payload))
		if err := json.Unmarshal(payload, &req); err != nil {
			logger.Error("error unmarshalling event", "error", err)
			break
		}

		if err := c.hub.routeEvent(req, c); err != nil {
			logger.Info("error handling message", "client", c.id, "type", req.Type, "error", err)

			if rerr := c.hub.reply(c, EventCommandError, newCommandError(req, err)); rerr != nil {
				logger.Warn("failed to reply with error", "client", c.id, "error", rerr)
			}
		}
	}
}

func (c *Client) writeEvents(logger *slog.Logger) {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.hub.removeClient(c)
	}()

	for {
		// bottle necking to prevent abuse of concurrency from client
		select {
		case <-c.done:
			return
		case message := <-c.egress:
			data, err := json.Marshal(message)
			if err != nil {
				logger.Error("error marshalling message", "error", err)
				return
			}

			if err := c.connection.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Error("failed to send message", "error", err)
				return
			}

			logger.Debug("message sent", "client", c.id, "type", message.Type)
		case <-ticker.C:
			if err := c.connection.WriteMessage(websocket.PingMessage, []byte(``)); err != nil {
				logger.Error("ping error", "error", err)
				return
			}
		}
	}
}

func (c *Client) pongHandler(pongMsg string) error {
	return c.connection.SetReadDeadline(time.Now().Add(pongWait))
}
