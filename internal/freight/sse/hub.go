package sse

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
)

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID        string
	UserEmail string
	Events    chan Event
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new SSE Hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.UserEmail = strings.ToLower(client.UserEmail)
	h.clients[client.ID] = client
	log.Printf("[SSE] Client registered: id=%s user=%s (total: %d)", client.ID, client.UserEmail, len(h.clients))
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		log.Printf("[SSE] Client unregistered: id=%s (total: %d)", clientID, len(h.clients))
	}
}

// Count 当前连接数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendToUser 给某个用户的所有连接发送事件，返回送达的连接数
func (h *Hub) SendToUser(email string, event Event) int {
	email = strings.ToLower(email)
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for _, client := range h.clients {
		if client.UserEmail != email {
			continue
		}
		select {
		case client.Events <- event:
			delivered++
		default:
			log.Printf("[SSE] Client %s buffer full, skipping user event", client.ID)
		}
	}
	return delivered
}

// PushToUser 把 payload 序列化为 JSON 推给用户；用户不在线不算错误
func (h *Hub) PushToUser(email, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sse payload: %w", err)
	}
	n := h.SendToUser(email, Event{EventType: eventType, Data: string(data)})
	if n > 0 {
		log.Printf("[SSE] Published %s to user=%s (%d connections)", eventType, email, n)
	}
	return nil
}
