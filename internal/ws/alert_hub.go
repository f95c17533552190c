// Package ws fans alert-state changes out to presentation clients over
// WebSocket.
package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// AlertHub manages the WebSocket connections of the presentation layer.
type AlertHub struct {
	logger  *log.Logger
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

// NewAlertHub creates an empty hub.
func NewAlertHub(logger *log.Logger) *AlertHub {
	if logger == nil {
		logger = log.Default()
	}
	return &AlertHub{
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Register adds a connection.
func (h *AlertHub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Printf("[WS] client registered (total: %d)", total)
}

// Unregister removes a connection.
func (h *AlertHub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	h.logger.Printf("[WS] client unregistered")
}

// ClientCount returns the number of connected clients.
func (h *AlertHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAlert sends an alert message to all clients.
func (h *AlertHub) BroadcastAlert(msg AlertMessage) {
	msg.Type = "alert"
	h.broadcast(msg)
}

// BroadcastMode sends a mode-change message to all clients.
func (h *AlertHub) BroadcastMode(msg ModeMessage) {
	msg.Type = "mode"
	h.broadcast(msg)
}

func (h *AlertHub) broadcast(msg any) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("[WS] error marshaling message: %v", err)
		return
	}

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Printf("[WS] error sending to client: %v", err)
			h.Unregister(conn)
			conn.Close()
		}
	}
}

// Close disconnects all clients.
func (h *AlertHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
