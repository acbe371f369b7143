// Package hub tracks live WebSocket connections and room membership, and
// fans published events out to every current member of a room.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/Asaphis/AsaphisCommerce/internal/config"
	"github.com/Asaphis/AsaphisCommerce/pkg/log"
)

// Hub owns the connection registry and the room membership map. All
// mutations go through its mutex, which preserves the serialization the
// relay's delivery semantics depend on: a disconnected client is removed
// from every room before any later broadcast can observe it.
type Hub struct {
	clients map[string]*Client            // clientID -> client
	rooms   map[string]map[string]*Client // roomID -> clientID -> client
	mu      sync.RWMutex
	config  config.WebSocketConfig
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		config:  cfg,
	}
}

// Register adds a freshly-accepted connection to the registry.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	logger := log.L()

	logger.Debug().Str(log.FieldClientID, client.ID).Msg("client registered")
}

// Unregister removes the client from every room it joined, then from the
// registry, and closes its send channel. It returns the rooms the client
// was removed from. Calling it twice is a no-op the second time.
func (h *Hub) Unregister(client *Client) []string {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; !ok {
		h.mu.Unlock()
		return nil
	}

	var left []string
	for roomID, members := range h.rooms {
		if _, ok := members[client.ID]; !ok {
			continue
		}
		delete(members, client.ID)
		left = append(left, roomID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	delete(h.clients, client.ID)
	close(client.Send)
	h.mu.Unlock()

	logger := log.L()

	logger.Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")
	return left
}

// JoinRoom subscribes the client to a room, creating the room on first
// join. Joining a room twice has no additional effect.
func (h *Hub) JoinRoom(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][client.ID] = client

	logger := log.L()

	logger.Info().Str(log.FieldClientID, client.ID).Str(log.FieldRoomID, roomID).Msg("client joined room")
}

// BroadcastToRoom delivers one message to every current member of the
// room, the publisher included. A member whose send buffer is full is
// dropped rather than allowed to stall the fan-out.
func (h *Hub) BroadcastToRoom(roomID string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mu.RLock()
	for _, client := range h.rooms[roomID] {
		select {
		case client.Send <- data:
		default:
			go h.removeClient(client)
		}
	}
	h.mu.RUnlock()
	return nil
}

// RoomMemberCount returns the number of clients currently in the room.
func (h *Hub) RoomMemberCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// RoomCount returns the number of rooms with at least one member.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomsOf returns the rooms the client currently subscribes to.
func (h *Hub) RoomsOf(client *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var rooms []string
	for roomID, members := range h.rooms {
		if _, ok := members[client.ID]; ok {
			rooms = append(rooms, roomID)
		}
	}
	return rooms
}

// Shutdown disconnects every client. Used on process teardown.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
	h.rooms = make(map[string]map[string]*Client)
	h.mu.Unlock()

	logger := log.L()

	logger.Info().Msg("hub shut down")
}

func (h *Hub) removeClient(client *Client) {
	h.Unregister(client)
	if client.Conn != nil {
		client.Conn.Close()
	}
}
