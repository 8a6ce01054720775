// Package websocket fans check-in events out to planners watching an
// event's door in real time.
package websocket

import (
	"context"
	"sync"

	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tariel-x/weddingcards/internal/checkin"
)

// Client is one feed connection, bound to a single event.
type Client struct {
	conn      *gws.Conn
	Send      chan []byte
	EventID   string
	UserID    string
	closeOnce sync.Once
}

func NewClient(conn *gws.Conn, eventID, userID string) *Client {
	return &Client{
		conn:    conn,
		Send:    make(chan []byte, 32),
		EventID: eventID,
		UserID:  userID,
	}
}

func (c *Client) trySend(payload []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

func (c *Client) closeConn() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Hub maintains the set of active clients per event.
type Hub struct {
	mu     sync.Mutex
	events map[string]map[*Client]struct{}
	log    zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		events: make(map[string]map[*Client]struct{}),
		log:    log,
	}
}

func (h *Hub) Add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.events[client.EventID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.events[client.EventID] = clients
	}
	clients[client] = struct{}{}
	h.log.Debug().Str("event_id", client.EventID).Str("user_id", client.UserID).Int("watchers", len(clients)).Msg("feed client added")
}

func (h *Hub) Remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.events[client.EventID]
	if !ok {
		return
	}
	if _, exists := clients[client]; exists {
		client.closeSend()
		delete(clients, client)
	}
	if len(clients) == 0 {
		delete(h.events, client.EventID)
	}
}

// Watchers is the number of clients following eventID.
func (h *Hub) Watchers(eventID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events[eventID])
}

// Broadcast queues payload for every client of eventID. Clients whose
// buffer is full are disconnected.
func (h *Hub) Broadcast(eventID string, payload []byte) int {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.events[eventID]))
	for client := range h.events[eventID] {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	delivered := 0
	for _, client := range clients {
		if client.trySend(payload) {
			delivered++
			continue
		}
		h.log.Warn().Str("event_id", eventID).Str("user_id", client.UserID).Msg("feed client too slow, disconnecting")
		client.closeConn()
		h.Remove(client)
	}
	return delivered
}

// GuestCheckedIn publishes a check-in to the event's watchers.
func (h *Hub) GuestCheckedIn(_ context.Context, ev checkin.Event) {
	payload, err := EncodeMessage(Message{
		Type:    TypeCheckedIn,
		EventID: ev.EventID,
		Data: CheckInData{
			GuestID:     ev.GuestID,
			Name:        ev.DisplayName,
			CheckInTime: ev.CheckInTime,
			ScannedBy:   ev.ScannedBy,
		},
	})
	if err != nil {
		h.log.Error().Err(err).Str("guest_id", ev.GuestID).Msg("failed to encode check-in")
		return
	}
	n := h.Broadcast(ev.EventID, payload)
	h.log.Debug().Str("event_id", ev.EventID).Str("guest_id", ev.GuestID).Int("delivered", n).Msg("check-in broadcast")
}
