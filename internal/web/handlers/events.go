package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dormwatch/dormwatch/internal/monitor"
)

// Hub fans monitor state out to connected WebSocket viewers. One JSON state
// message is broadcast per committed sample and per explicit state change.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
}

// NewHub creates a hub; call Run in a goroutine to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Run processes register/unregister/broadcast events until the process ends.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// BroadcastStatus queues a monitor status for all viewers. Wired as the
// monitor's OnUpdate callback; a full broadcast queue drops the update
// rather than stalling the sampling loop.
func (h *Hub) BroadcastStatus(st monitor.Status) {
	payload, err := json.Marshal(st)
	if err != nil {
		log.Printf("events: could not marshal status: %v", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
	}
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// EventsHandler upgrades viewers to WebSocket and registers them with the hub.
type EventsHandler struct {
	hub *Hub
	mon *monitor.Monitor

	upgrader websocket.Upgrader
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(hub *Hub, mon *monitor.Monitor) *EventsHandler {
	return &EventsHandler{
		hub: hub,
		mon: mon,
		upgrader: websocket.Upgrader{
			// The event stream is read-only display state; origin policy is
			// enforced on the control endpoints.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve upgrades the connection, sends the current state immediately and
// keeps the viewer registered until it disconnects.
func (h *EventsHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("events: upgrade failed: %v", err)
		return
	}

	payload, err := json.Marshal(h.mon.Status())
	if err == nil {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			return
		}
	}

	h.register(conn)

	// Viewers never send application messages; the read loop only detects
	// disconnects.
	go func() {
		defer h.unregisterConn(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *EventsHandler) register(conn *websocket.Conn) {
	h.hub.register <- conn
}

func (h *EventsHandler) unregisterConn(conn *websocket.Conn) {
	h.hub.unregister <- conn
}
