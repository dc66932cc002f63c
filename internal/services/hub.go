package services

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub keeps the live websocket connections of signed-in users and pushes
// freshly written notifications to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]Claims
	ch      chan push
}

type push struct {
	userID string
	role   string
	event  interface{}
}

func NewHub() *Hub {
	return &Hub{
		clients: map[*websocket.Conn]Claims{},
		ch:      make(chan push, 64),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case msg := <-h.ch:
			h.deliver(msg)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) deliver(msg push) {
	h.mu.RLock()
	targets := make([]*websocket.Conn, 0, len(h.clients))
	for conn, claims := range h.clients {
		if (msg.userID != "" && claims.UserID == msg.userID) || (msg.role != "" && claims.Role == msg.role) {
			targets = append(targets, conn)
		}
	}
	h.mu.RUnlock()
	for _, conn := range targets {
		if err := conn.WriteJSON(msg.event); err != nil {
			h.Remove(conn)
			_ = conn.Close()
		}
	}
}

// SendToUser queues event for every connection of userID. Drops when full.
func (h *Hub) SendToUser(userID string, event interface{}) {
	h.enqueue(push{userID: userID, event: event})
}

func (h *Hub) SendToRole(role string, event interface{}) {
	h.enqueue(push{role: role, event: event})
}

func (h *Hub) enqueue(msg push) {
	if h == nil {
		return
	}
	select {
	case h.ch <- msg:
	default:
	}
}

func (h *Hub) Add(conn *websocket.Conn, claims Claims) {
	h.mu.Lock()
	h.clients[conn] = claims
	h.mu.Unlock()
}

func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
