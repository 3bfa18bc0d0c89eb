package repository

import (
	"context"
	"testing"

	"solarshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRepository_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewOutboxRepository(db)
	ctx := context.Background()

	require.NoError(t, appendOutbox(db, models.EventProjectCreated, 1, models.ProjectCreatedPayload{ProjectID: 1}))
	require.NoError(t, appendOutbox(db, models.EventProjectProgressed, 1, models.ProjectProgressedPayload{ProjectID: 1, ProgressPercentage: 40}))

	pending, err := repo.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, models.EventProjectCreated, pending[0].EventType)
	assert.JSONEq(t, `{"project_id":1,"community_id":0,"provider_id":0,"total_cost":"","estimated_completion_date":"0001-01-01T00:00:00Z"}`, pending[0].Payload)

	require.NoError(t, repo.MarkSent(ctx, pending[0].ID))
	for i := 0; i < MaxOutboxRetry; i++ {
		require.NoError(t, repo.MarkFailed(ctx, pending[1].ID))
	}

	pending, err = repo.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "sent and exhausted events are not relayed again")

	var parked models.OutboxEvent
	require.NoError(t, db.First(&parked, "event_type = ?", models.EventProjectProgressed).Error)
	assert.Equal(t, models.OutboxStatusFailed, parked.Status)
	assert.Equal(t, MaxOutboxRetry, parked.Retry)
}
