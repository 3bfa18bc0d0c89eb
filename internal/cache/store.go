package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a JSON cache on top of Redis. A Store with a nil client is a no-op,
// so callers never branch on whether Redis is configured.
type Store struct {
	rdb *redis.Client
}

// NewStore wraps rdb; rdb may be nil.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Client exposes the underlying Redis client (nil when disabled).
func (s *Store) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.rdb
}

// Enabled reports whether a Redis client is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.rdb != nil
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, ttl).Err()
}

// Aside reads key into dest; on a miss (or a Redis failure) it calls fetch,
// which must populate dest, and stores the result best-effort.
// It reports whether the value came from the cache.
func (s *Store) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) (bool, error) {
	if found, err := s.GetJSON(ctx, key, dest); err == nil && found {
		return true, nil
	}
	if err := fetch(); err != nil {
		return false, err
	}
	_ = s.SetJSON(ctx, key, dest, ttl)
	return false, nil
}

// Invalidate deletes keys, ignoring errors.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if !s.Enabled() || len(keys) == 0 {
		return
	}
	s.rdb.Del(ctx, keys...)
}

// InvalidateProfile drops the cached profile and membership of a user.
func (s *Store) InvalidateProfile(ctx context.Context, userID uint) {
	s.Invalidate(ctx, ProfileKey(userID), MembershipKey(userID))
}

// InvalidateCommunity drops the cached community details.
func (s *Store) InvalidateCommunity(ctx context.Context, communityID uint) {
	s.Invalidate(ctx, CommunityKey(communityID))
}

// AsideTally is Aside for a quote request's vote counts, keyed by the
// request's current tally generation. When the generation cannot be read the
// cache is bypassed.
func (s *Store) AsideTally(ctx context.Context, requestID uint, dest any, fetch func() error) (bool, error) {
	if !s.Enabled() {
		return false, fetch()
	}
	gen, err := s.rdb.Get(ctx, TallyGenKey(requestID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fetch()
	}
	return s.Aside(ctx, TallyKey(requestID, gen), dest, TallyTTL, fetch)
}

// InvalidateTally starts a new tally generation for the request. Counts that a
// slower reader fetched before the change land on the previous generation's
// key, which is never read again, so they cannot resurrect a stale tally.
func (s *Store) InvalidateTally(ctx context.Context, requestID uint) {
	if !s.Enabled() {
		return
	}
	key := TallyGenKey(requestID)
	pipe := s.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, TallyGenTTL)
	_, _ = pipe.Exec(ctx)
}
