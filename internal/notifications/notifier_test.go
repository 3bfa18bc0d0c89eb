package notifications

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.False(t, n.Enabled())
	assert.NoError(t, n.PublishVoting(context.Background(), 1, EventTallyUpdated, nil))
	assert.NoError(t, n.StartVotingSubscriber(context.Background(), func(string, string) {}))
}

func TestVotingChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "voting:request:42", VotingChannel(42))

	tests := []struct {
		channel string
		id      uint
		ok      bool
	}{
		{"voting:request:42", 42, true},
		{"voting:request:0", 0, false},
		{"voting:request:abc", 0, false},
		{"notifications:user:1", 0, false},
	}
	for _, tt := range tests {
		id, ok := ParseVotingChannel(tt.channel)
		assert.Equal(t, tt.ok, ok, tt.channel)
		assert.Equal(t, tt.id, id, tt.channel)
	}
}

func TestNotifier_StartVotingSubscriber_StopsOnCancel(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received int32
	payloads := make(chan string, 2)
	require.NoError(t, n.StartVotingSubscriber(ctx, func(_ string, payload string) {
		atomic.AddInt32(&received, 1)
		payloads <- payload
	}))

	require.NoError(t, n.PublishVoting(context.Background(), 1, EventTallyUpdated, "before-cancel"))
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&received) >= 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)

	select {
	case <-payloads:
	default:
	}

	require.NoError(t, n.PublishVoting(context.Background(), 1, EventTallyUpdated, "after-cancel"))
	assert.Never(t, func() bool {
		select {
		case payload := <-payloads:
			return payload != ""
		default:
			return false
		}
	}, 200*time.Millisecond, 10*time.Millisecond)
}
