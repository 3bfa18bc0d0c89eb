package service

import (
	"testing"

	"solarshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quotesWithIDs(ids ...uint) []models.ProviderQuote {
	out := make([]models.ProviderQuote, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.ProviderQuote{ID: id, ProviderID: id * 10, Provider: &models.Profile{Name: "Provider"}})
	}
	return out
}

func TestComputeTally_RanksAndRounds(t *testing.T) {
	tally := ComputeTally(quotesWithIDs(1, 2, 3), []models.QuoteVoteCount{
		{ProviderQuoteID: 1, Votes: 2},
		{ProviderQuoteID: 2, Votes: 5},
	})

	require.Len(t, tally.Quotes, 3)
	assert.EqualValues(t, 7, tally.TotalVotes)

	assert.Equal(t, uint(2), tally.Quotes[0].QuoteID)
	assert.Equal(t, 71, tally.Quotes[0].VotePercentage)
	assert.True(t, tally.Quotes[0].IsLeading)

	assert.Equal(t, uint(1), tally.Quotes[1].QuoteID)
	assert.Equal(t, 29, tally.Quotes[1].VotePercentage)
	assert.False(t, tally.Quotes[1].IsLeading)

	assert.Equal(t, uint(3), tally.Quotes[2].QuoteID)
	assert.Equal(t, 0, tally.Quotes[2].VotePercentage)
	assert.EqualValues(t, 0, tally.Quotes[2].VotesCount)

	require.NotNil(t, tally.Leader())
	assert.Equal(t, uint(2), tally.Leader().QuoteID)
}

func TestComputeTally_NoVotesHasNoLeader(t *testing.T) {
	tally := ComputeTally(quotesWithIDs(4, 2), nil)

	assert.Nil(t, tally.Leader())
	for _, q := range tally.Quotes {
		assert.False(t, q.IsLeading)
		assert.Equal(t, 0, q.VotePercentage)
	}
	// Ties keep the older quote first.
	assert.Equal(t, uint(2), tally.Quotes[0].QuoteID)
}

func TestComputeTally_TieBreaksOnOlderQuote(t *testing.T) {
	tally := ComputeTally(quotesWithIDs(9, 3), []models.QuoteVoteCount{
		{ProviderQuoteID: 9, Votes: 1},
		{ProviderQuoteID: 3, Votes: 1},
	})
	assert.Equal(t, uint(3), tally.Leader().QuoteID)
	assert.Equal(t, 50, tally.Quotes[0].VotePercentage)
	assert.Equal(t, 50, tally.Quotes[1].VotePercentage)
}

func TestComputeTally_PercentagesStayNearHundred(t *testing.T) {
	cases := [][]int64{{1, 1, 1}, {2, 5, 0}, {1, 2, 3, 4}, {7}, {1, 1, 1, 1, 1, 1}}
	for _, votes := range cases {
		ids := make([]uint, len(votes))
		counts := make([]models.QuoteVoteCount, len(votes))
		for i, v := range votes {
			ids[i] = uint(i + 1)
			counts[i] = models.QuoteVoteCount{ProviderQuoteID: uint(i + 1), Votes: v}
		}
		tally := ComputeTally(quotesWithIDs(ids...), counts)
		sum := 0
		for _, q := range tally.Quotes {
			sum += q.VotePercentage
		}
		assert.InDelta(t, 100, sum, float64(len(votes)), "votes %v", votes)
	}
}

func TestComputeTally_UnknownProviderName(t *testing.T) {
	tally := ComputeTally([]models.ProviderQuote{{ID: 1}}, nil)
	assert.Equal(t, "Unknown Provider", tally.Quotes[0].ProviderName)
}

func TestComputeAggregate(t *testing.T) {
	agg := ComputeAggregate(12, []models.QuoteVoteCount{
		{ProviderQuoteID: 1, Votes: 2},
		{ProviderQuoteID: 2, Votes: 5},
	})
	assert.Equal(t, uint(12), agg.RequestID)
	assert.EqualValues(t, 7, agg.TotalVotes)
	require.Len(t, agg.Shares, 2)
	assert.Equal(t, VoteShare{QuoteID: 2, VotesCount: 5, VotePercentage: 71}, agg.Shares[0])
	assert.Equal(t, VoteShare{QuoteID: 1, VotesCount: 2, VotePercentage: 29}, agg.Shares[1])

	empty := ComputeAggregate(3, nil)
	assert.Zero(t, empty.TotalVotes)
	assert.NotNil(t, empty.Shares)
}
