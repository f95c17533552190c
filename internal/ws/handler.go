package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The hub serves the in-vehicle display on a trusted local
	// interface; there is no cross-origin browser traffic to police.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler returns an http.HandlerFunc that upgrades connections and
// registers them with the hub. The read loop exists only to detect
// disconnects; clients do not send data.
func Handler(hub *AlertHub, logger *log.Logger) http.HandlerFunc {
	if logger == nil {
		logger = log.Default()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Printf("[WS] upgrade failed: %v", err)
			return
		}

		hub.Register(conn)
		defer func() {
			hub.Unregister(conn)
			conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
