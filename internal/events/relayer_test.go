package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"solarshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOutbox struct {
	mu      sync.Mutex
	pending []models.OutboxEvent
	sent    []uint
	failed  []uint
	listErr error
}

func (s *stubOutbox) ListPending(_ context.Context, limit int) ([]models.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.OutboxEvent, 0, len(s.pending))
	for _, ev := range s.pending {
		if len(out) == limit {
			break
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *stubOutbox) MarkSent(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, id)
	s.remove(id)
	return nil
}

func (s *stubOutbox) MarkFailed(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, id)
	return nil
}

func (s *stubOutbox) remove(id uint) {
	for i, ev := range s.pending {
		if ev.ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

func TestRelayer_DrainOnce(t *testing.T) {
	repo := &stubOutbox{pending: []models.OutboxEvent{
		{ID: 1, EventType: models.EventProjectCreated, Payload: `{}`},
		{ID: 2, EventType: models.EventQuoteRequestClosed, Payload: `{}`},
		{ID: 3, EventType: models.EventProjectCreated, Payload: `{}`},
	}}

	var published []uint
	sender := func(_ context.Context, ev *models.OutboxEvent) error {
		if ev.ID == 3 {
			return errors.New("broker unavailable")
		}
		published = append(published, ev.ID)
		return nil
	}

	r := NewRelayer(repo, sender, RelayerOptions{BatchSize: 10})
	var handled []uint
	r.Handle(models.EventQuoteRequestClosed, func(_ context.Context, ev *models.OutboxEvent) error {
		handled = append(handled, ev.ID)
		return nil
	})

	n, err := r.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []uint{1, 2}, published)
	assert.Equal(t, []uint{2}, handled)
	assert.Equal(t, []uint{1, 2}, repo.sent)
	assert.Equal(t, []uint{3}, repo.failed)
}

func TestRelayer_HandlerFailureRetriesEvent(t *testing.T) {
	repo := &stubOutbox{pending: []models.OutboxEvent{{ID: 7, EventType: models.EventQuoteRequestClosed, Payload: `{}`}}}
	r := NewRelayer(repo, nil, RelayerOptions{})
	r.Handle(models.EventQuoteRequestClosed, func(context.Context, *models.OutboxEvent) error {
		return errors.New("smtp down")
	})

	n, err := r.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, repo.sent)
	assert.Equal(t, []uint{7}, repo.failed)
}

func TestRelayer_ListError(t *testing.T) {
	r := NewRelayer(&stubOutbox{listErr: errors.New("db down")}, nil, RelayerOptions{})
	_, err := r.DrainOnce(context.Background())
	assert.Error(t, err)
}

func TestRelayer_RunStopsOnCancel(t *testing.T) {
	repo := &stubOutbox{pending: []models.OutboxEvent{{ID: 1, EventType: models.EventProjectCreated, Payload: `{}`}}}
	r := NewRelayer(repo, nil, RelayerOptions{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.sent) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relayer did not stop")
	}
}

func TestNewEnvelope(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	env, err := NewEnvelope(&models.OutboxEvent{ID: 4, EventType: models.EventProjectCreated, AggregateID: 9, Payload: `{"project_id":9}`, CreatedAt: created})
	require.NoError(t, err)
	assert.Equal(t, uint(9), env.AggregateID)
	assert.JSONEq(t, `{"project_id":9}`, string(env.Payload))
	assert.Equal(t, created, env.OccurredAt)

	_, err = NewEnvelope(&models.OutboxEvent{ID: 5, Payload: `not json`})
	assert.Error(t, err)

	assert.Equal(t, "42", KeyFromID(42))
}
