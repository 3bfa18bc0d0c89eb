package service

import (
	"math"
	"sort"

	"solarshare/internal/models"

	"github.com/shopspring/decimal"
)

// QuoteTally is one quote with its share of the vote.
type QuoteTally struct {
	QuoteID        uint                `json:"id"`
	ProviderID     uint                `json:"provider_id"`
	ProviderName   string              `json:"provider_name"`
	TotalCost      decimal.Decimal     `json:"total_cost"`
	Details        models.QuoteDetails `json:"details"`
	VotesCount     int64               `json:"votes_count"`
	VotePercentage int                 `json:"vote_percentage"`
	IsLeading      bool                `json:"is_leading"`
}

// Tally ranks the quotes of one request by votes.
type Tally struct {
	TotalVotes int64        `json:"total_votes"`
	Quotes     []QuoteTally `json:"quotes"`
}

// Leader returns the leading quote, or nil while nobody has voted.
func (t Tally) Leader() *QuoteTally {
	if t.TotalVotes == 0 || len(t.Quotes) == 0 {
		return nil
	}
	return &t.Quotes[0]
}

// VoteShare is the aggregate returned after a vote: counts only, no quote bodies.
type VoteShare struct {
	QuoteID        uint  `json:"provider_quote_id"`
	VotesCount     int64 `json:"votes_count"`
	VotePercentage int   `json:"vote_percentage"`
}

// VoteAggregate is the vote distribution of one request.
type VoteAggregate struct {
	RequestID   uint        `json:"quote_request_id"`
	TotalVotes  int64       `json:"total_votes"`
	Shares      []VoteShare `json:"shares"`
	UserQuoteID uint        `json:"user_quote_id,omitempty"`
}

// votePercentage rounds count/total to a whole percent; 0 when nobody voted.
func votePercentage(count, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

// ComputeTally joins quotes with their vote counts and ranks them by votes
// descending, older quotes first on ties. Percentages are rounded
// individually, so they may not sum to exactly 100.
func ComputeTally(quotes []models.ProviderQuote, counts []models.QuoteVoteCount) Tally {
	byQuote := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byQuote[c.ProviderQuoteID] = c.Votes
	}

	var t Tally
	t.Quotes = make([]QuoteTally, 0, len(quotes))
	for _, q := range quotes {
		votes := byQuote[q.ID]
		t.TotalVotes += votes
		name := "Unknown Provider"
		if q.Provider != nil && q.Provider.Name != "" {
			name = q.Provider.Name
		}
		t.Quotes = append(t.Quotes, QuoteTally{
			QuoteID:      q.ID,
			ProviderID:   q.ProviderID,
			ProviderName: name,
			TotalCost:    q.TotalCost,
			Details:      q.Details,
			VotesCount:   votes,
		})
	}

	for i := range t.Quotes {
		t.Quotes[i].VotePercentage = votePercentage(t.Quotes[i].VotesCount, t.TotalVotes)
	}
	sort.SliceStable(t.Quotes, func(i, j int) bool {
		if t.Quotes[i].VotesCount != t.Quotes[j].VotesCount {
			return t.Quotes[i].VotesCount > t.Quotes[j].VotesCount
		}
		return t.Quotes[i].QuoteID < t.Quotes[j].QuoteID
	})
	if t.TotalVotes > 0 && len(t.Quotes) > 0 {
		t.Quotes[0].IsLeading = true
	}
	return t
}

// ComputeAggregate turns raw counts into shares sorted like the full tally.
func ComputeAggregate(requestID uint, counts []models.QuoteVoteCount) VoteAggregate {
	agg := VoteAggregate{RequestID: requestID, Shares: make([]VoteShare, 0, len(counts))}
	for _, c := range counts {
		agg.TotalVotes += c.Votes
	}
	for _, c := range counts {
		agg.Shares = append(agg.Shares, VoteShare{
			QuoteID:        c.ProviderQuoteID,
			VotesCount:     c.Votes,
			VotePercentage: votePercentage(c.Votes, agg.TotalVotes),
		})
	}
	sort.SliceStable(agg.Shares, func(i, j int) bool {
		if agg.Shares[i].VotesCount != agg.Shares[j].VotesCount {
			return agg.Shares[i].VotesCount > agg.Shares[j].VotesCount
		}
		return agg.Shares[i].QuoteID < agg.Shares[j].QuoteID
	})
	return agg
}
