package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"solarshare/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per user across all requests.
	maxConnsPerUser = 8
	// Max total connections
	maxTotalConns = 10000
)

// Errors returned by Register.
var (
	ErrServerFull  = errors.New("server connection limit reached")
	ErrUserLimit   = errors.New("user connection limit reached")
	ErrHubShutdown = errors.New("hub is shutting down")
)

// VotingHub maps quote request ids to the clients watching them.
type VotingHub struct {
	mu         sync.RWMutex
	rooms      map[uint]map[*Client]struct{}
	perUser    map[uint]int
	totalConns int
	closed     bool
}

// NewVotingHub creates an empty hub.
func NewVotingHub() *VotingHub {
	return &VotingHub{
		rooms:   make(map[uint]map[*Client]struct{}),
		perUser: make(map[uint]int),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *VotingHub) Name() string { return "voting hub" }

// Register attaches a connection of userID to requestID.
func (h *VotingHub) Register(requestID, userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubShutdown
	}
	if h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}
	if h.perUser[userID] >= maxConnsPerUser {
		return nil, ErrUserLimit
	}

	room, ok := h.rooms[requestID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[requestID] = room
	}
	client := NewClient(h, conn, userID, requestID)
	room[client] = struct{}{}
	h.perUser[userID]++
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// UnregisterClient detaches c. Calling it twice is harmless.
func (h *VotingHub) UnregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[c.RequestID]
	if !ok {
		return
	}
	if _, exists := room[c]; !exists {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.RequestID)
	}
	h.perUser[c.UserID]--
	if h.perUser[c.UserID] <= 0 {
		delete(h.perUser, c.UserID)
	}
	h.totalConns--
	observability.WebSocketConnectionsTotal.Dec()
}

// Viewers returns how many connections watch requestID.
func (h *VotingHub) Viewers(requestID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[requestID])
}

// BroadcastRaw sends an already encoded message to every viewer of requestID.
func (h *VotingHub) BroadcastRaw(requestID uint, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[requestID] {
		c.TrySend(data)
	}
}

// Broadcast encodes ev and sends it to the viewers of ev.RequestID.
func (h *VotingHub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("voting hub: marshal %s: %v", ev.Type, err)
		return
	}
	h.BroadcastRaw(ev.RequestID, data)
}

// StartWiring forwards messages published on voting channels to local viewers.
func (h *VotingHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartVotingSubscriber(ctx, func(channel, payload string) {
		requestID, ok := ParseVotingChannel(channel)
		if !ok {
			log.Printf("invalid voting channel: %s", channel)
			return
		}
		h.BroadcastRaw(requestID, []byte(payload))
	})
}

// Shutdown closes every connection and refuses new ones.
func (h *VotingHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	for requestID, room := range h.rooms {
		for client := range room {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				log.Printf("failed to write close message for request %d: %v", requestID, err)
			}
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close websocket for request %d: %v", requestID, err)
			}
		}
	}
	observability.WebSocketConnectionsTotal.Sub(float64(h.totalConns))
	h.rooms = make(map[uint]map[*Client]struct{})
	h.perUser = make(map[uint]int)
	h.totalConns = 0
	return nil
}
