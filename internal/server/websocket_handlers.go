package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"solarshare/internal/cache"
	"solarshare/internal/middleware"
	"solarshare/internal/models"
	"solarshare/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// livePublisher sends voting events through Redis when it is configured so
// every instance sees them, and straight to the local hub otherwise.
type livePublisher struct {
	notifier *notifications.Notifier
	hub      *notifications.VotingHub
}

func (p livePublisher) PublishVoting(ctx context.Context, requestID uint, eventType string, payload any) error {
	if p.notifier.Enabled() {
		return p.notifier.PublishVoting(ctx, requestID, eventType, payload)
	}
	p.hub.Broadcast(notifications.Event{Type: eventType, RequestID: requestID, Payload: payload})
	return nil
}

// ticketStore hands out single-use WebSocket tickets. Tickets live in Redis
// when available and in process memory otherwise.
type ticketStore struct {
	rdb   *redis.Client
	mu    sync.Mutex
	local map[string]localTicket
	now   func() time.Time
}

type localTicket struct {
	userID  uint
	expires time.Time
}

func newTicketStore(rdb *redis.Client) *ticketStore {
	return &ticketStore{rdb: rdb, local: make(map[string]localTicket), now: time.Now}
}

// Issue creates a ticket for userID valid for cache.WSTicketTTL.
func (t *ticketStore) Issue(ctx context.Context, userID uint) (string, error) {
	ticket := uuid.NewString()
	if t.rdb != nil {
		if err := t.rdb.Set(ctx, cache.WSTicketKey(ticket), userID, cache.WSTicketTTL).Err(); err != nil {
			return "", err
		}
		return ticket, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for k, v := range t.local {
		if now.After(v.expires) {
			delete(t.local, k)
		}
	}
	t.local[ticket] = localTicket{userID: userID, expires: now.Add(cache.WSTicketTTL)}
	return ticket, nil
}

// Consume redeems a ticket. A ticket works at most once.
func (t *ticketStore) Consume(ctx context.Context, ticket string) (uint, bool, error) {
	if t.rdb != nil {
		raw, err := t.rdb.GetDel(ctx, cache.WSTicketKey(ticket)).Result()
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		if err != nil {
			return 0, false, err
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			return 0, false, nil
		}
		return uint(id), true, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.local[ticket]
	delete(t.local, ticket)
	if !ok || t.now().After(entry.expires) {
		return 0, false, nil
	}
	return entry.userID, true, nil
}

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue a WebSocket ticket
// @Description Single-use, valid for 60 seconds. Pass it as ?ticket= when opening /api/ws/voting/{id}.
// @Tags realtime
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Failure 401 {object} models.ErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	ticket, err := s.tickets.Issue(c.Context(), userID(c))
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(cache.WSTicketTTL.Seconds()),
	})
}

// WebSocketVotingHandler streams live tallies of one quote request. The
// first message is the full voting state; tally_updated and voting_closed
// events follow.
func (s *Server) WebSocketVotingHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		uid, _ := conn.Locals("userID").(uint)
		requestID, _ := conn.Locals("requestID").(uint)
		ctx := context.Background()

		state, err := s.votingService.VotingState(ctx, uid, requestID)
		if err != nil {
			writeWSError(conn, err)
			return
		}

		client, err := s.votingHub.Register(requestID, uid, conn)
		if err != nil {
			log.Printf("WebSocket Voting: failed to register user %d: %v", uid, err)
			writeWSError(conn, err)
			return
		}

		initial, err := json.Marshal(notifications.Event{
			Type:      notifications.EventVotingState,
			RequestID: requestID,
			Payload:   state,
		})
		if err == nil {
			client.TrySend(initial)
		}

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		requestID, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		uid, ok := middleware.CurrentUserID(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		c.Locals("userID", uid)
		c.Locals("requestID", requestID)
		return upgrade(c)
	}
}

func writeWSError(conn *websocket.Conn, err error) {
	msg := "internal error"
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	} else if errors.Is(err, notifications.ErrUserLimit) || errors.Is(err, notifications.ErrServerFull) {
		msg = err.Error()
	}
	body, _ := json.Marshal(fiber.Map{"type": "error", "error": msg})
	_ = conn.WriteMessage(websocket.TextMessage, body)
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, msg))
	_ = conn.Close()
}
