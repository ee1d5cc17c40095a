// Package server implements the websocket transport: client lifecycle, room
// broadcast, and dispatch of inbound events to the game service.
package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Envelope is the wire frame for every message in both directions.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub owns every connected client and the room membership sets, and
// implements the Broadcaster consumed by the game engines.
// All methods are safe for concurrent use.
type Hub struct {
	log      *zap.Logger
	dispatch *Dispatcher
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	rooms   map[string]map[*Client]bool
	clients map[*Client]bool
}

// NewHub creates a Hub that feeds inbound events to d.
//
// Precondition: log and d must be non-nil.
func NewHub(log *zap.Logger, d *Dispatcher) *Hub {
	return &Hub{
		log:      log,
		dispatch: d,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin checks belong to the reverse proxy in front of this
			// process.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		rooms:   make(map[string]map[*Client]bool),
		clients: make(map[*Client]bool),
	}
}

// ServeHTTP upgrades the request and runs the client's pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := newClient(h, conn)

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	h.log.Info("client connected", zap.String("client", c.id))
	go c.writePump()
	go c.readPump()
}

// joinRoom adds c to the room's broadcast set and binds its player identity.
func (h *Hub) joinRoom(c *Client, code, username string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.room != "" {
		delete(h.rooms[c.room], c)
	}
	c.room = code
	c.username = username
	if h.rooms[code] == nil {
		h.rooms[code] = make(map[*Client]bool)
	}
	h.rooms[code][c] = true
}

// drop removes c from the hub and its room. Invoked once per client, from
// the read pump's exit path.
func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	if c.room != "" {
		delete(h.rooms[c.room], c)
		if len(h.rooms[c.room]) == 0 {
			delete(h.rooms, c.room)
		}
	}
	room, username := c.room, c.username
	h.mu.Unlock()

	h.log.Info("client disconnected",
		zap.String("client", c.id), zap.String("player", username))
	if room != "" && username != "" {
		h.dispatch.PlayerLeft(room, username)
	}
}

// EmitToRoom sends one event to every client in the room. A client whose
// send queue is full is skipped rather than allowed to stall the room.
func (h *Hub) EmitToRoom(roomCode, event string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("marshal broadcast payload",
			zap.String("event", event), zap.Error(err))
		return
	}
	frame, err := json.Marshal(Envelope{Event: event, Payload: body})
	if err != nil {
		h.log.Error("marshal broadcast envelope",
			zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomCode] {
		select {
		case c.send <- frame:
		default:
			h.log.Warn("dropping frame for slow client",
				zap.String("client", c.id), zap.String("event", event))
		}
	}
}
