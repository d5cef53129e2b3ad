package bridge

import (
	"net/http"

	"github.com/gorilla/websocket"
)

func (h *Hub) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin:     h.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}

	origin := r.Header.Get("Origin")
	for _, o := range h.allowedOrigins {
		if origin == o {
			return true
		}
	}

	return false
}
