package repository

import (
	"context"
	"testing"

	"solarshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteRepository_UpsertSwitchesVote(t *testing.T) {
	db := newTestDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	admin := seedProfile(t, db, "admin@example.com", false)
	member := seedProfile(t, db, "member@example.com", false)
	community := seedCommunity(t, db, admin, "VOTE01", member)
	req := seedRequest(t, db, community)
	p1 := seedProfile(t, db, "p1@example.com", true)
	p2 := seedProfile(t, db, "p2@example.com", true)
	q1 := seedQuote(t, db, req, p1, "1500000")
	q2 := seedQuote(t, db, req, p2, "1400000")

	prev, err := repo.Upsert(ctx, req.ID, q1.ID, member.ID)
	require.NoError(t, err)
	assert.Zero(t, prev)

	prev, err = repo.Upsert(ctx, req.ID, q1.ID, admin.ID)
	require.NoError(t, err)
	assert.Zero(t, prev)

	prev, err = repo.Upsert(ctx, req.ID, q2.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, q1.ID, prev)

	var total int64
	require.NoError(t, db.Model(&models.Vote{}).Where("quote_request_id = ?", req.ID).Count(&total).Error)
	assert.Equal(t, int64(2), total, "a voter holds one vote per request")

	counts, err := repo.CountByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.QuoteVoteCount{
		{ProviderQuoteID: q1.ID, Votes: 1},
		{ProviderQuoteID: q2.ID, Votes: 1},
	}, counts)

	vote, err := repo.GetForVoter(ctx, req.ID, member.ID)
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.Equal(t, q2.ID, vote.ProviderQuoteID)

	vote, err = repo.GetForVoter(ctx, req.ID, p1.ID)
	require.NoError(t, err)
	assert.Nil(t, vote)
}

func TestVoteRepository_UpsertRejectsClosedRequest(t *testing.T) {
	db := newTestDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	admin := seedProfile(t, db, "admin@example.com", false)
	member := seedProfile(t, db, "member@example.com", false)
	community := seedCommunity(t, db, admin, "VOTE02", member)
	req := seedRequest(t, db, community)
	provider := seedProfile(t, db, "p1@example.com", true)
	quote := seedQuote(t, db, req, provider, "1500000")

	_, err := repo.Upsert(ctx, req.ID, quote.ID, admin.ID)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.QuoteRequest{}).Where("id = ?", req.ID).
		Update("status", models.QuoteRequestStatusClosed).Error)

	_, err = repo.Upsert(ctx, req.ID, quote.ID, member.ID)
	assert.ErrorIs(t, err, ErrVotingAlreadyClosed)

	var total int64
	require.NoError(t, db.Model(&models.Vote{}).Where("quote_request_id = ?", req.ID).Count(&total).Error)
	assert.Equal(t, int64(1), total, "no vote lands on a closed request")

	_, err = repo.Upsert(ctx, 9999, quote.ID, member.ID)
	assert.ErrorIs(t, err, ErrVotingAlreadyClosed)
}
