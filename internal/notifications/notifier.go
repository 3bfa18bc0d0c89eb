// Package notifications fans live voting updates out to WebSocket viewers
// through Redis pub/sub, so every API instance sees every vote.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const votingChannelPrefix = "voting:request:"

// Message types pushed to viewers.
const (
	EventVotingState  = "voting_state"
	EventTallyUpdated = "tally_updated"
	EventVotingClosed = "voting_closed"
)

// Event is the envelope written to viewers.
type Event struct {
	Type      string `json:"type"`
	RequestID uint   `json:"request_id"`
	Payload   any    `json:"payload"`
}

// Notifier provides helpers to publish voting updates into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether publishing reaches Redis.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// PublishVoting sends an event to everyone watching requestID.
func (n *Notifier) PublishVoting(ctx context.Context, requestID uint, eventType string, payload any) error {
	if !n.Enabled() {
		return nil
	}
	body, err := json.Marshal(Event{Type: eventType, RequestID: requestID, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, VotingChannel(requestID), string(body)).Err()
}

// StartVotingSubscriber subscribes to `voting:request:*` and calls onMessage
// for each incoming message until ctx is done.
func (n *Notifier) StartVotingSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, votingChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe voting channels: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in VotingSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// VotingChannel derives the Redis channel name for a quote request.
func VotingChannel(requestID uint) string {
	return votingChannelPrefix + strconv.FormatUint(uint64(requestID), 10)
}

// ParseVotingChannel extracts the request id from a channel name.
func ParseVotingChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, votingChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
