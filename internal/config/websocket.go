package config

import (
	"net/http"

	"github.com/gorilla/websocket"
)

type WebSocket struct {
	Upgrader websocket.Upgrader
}

func NewWebSocket() *WebSocket {
	return &WebSocket{
		Upgrader: websocket.Upgrader{
			// Cross-origin policy lives in the CORS middleware; the
			// upgrader itself accepts any origin.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}
