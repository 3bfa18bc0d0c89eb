package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"solarshare/internal/cache"
	"solarshare/internal/featureflags"
	"solarshare/internal/models"
	"solarshare/internal/notifications"
	"solarshare/internal/observability"
	"solarshare/internal/repository"
)

// Publisher pushes voting events to live viewers.
type Publisher interface {
	PublishVoting(ctx context.Context, requestID uint, eventType string, payload any) error
}

// VotingService presents, records and closes votes on quote requests.
type VotingService struct {
	quotes      repository.QuoteRepository
	votes       repository.VoteRepository
	communities repository.CommunityRepository
	store       *cache.Store
	publisher   Publisher
	flags       *featureflags.Manager
	now         func() time.Time
}

// VotingState is everything the voting page shows for one request.
type VotingState struct {
	Request       *models.QuoteRequest     `json:"quote_request"`
	CommunityName string                   `json:"community_name"`
	CanClose      bool                     `json:"can_close"`
	IsOpen        bool                     `json:"is_open"`
	TotalVotes    int64                    `json:"total_votes"`
	Quotes        []QuoteTally             `json:"quotes"`
	HasUserVoted  bool                     `json:"has_user_voted"`
	UserQuoteID   uint                     `json:"user_quote_id,omitempty"`
	Selection     *models.SelectedProvider `json:"selected_provider,omitempty"`
}

// EndVotingResult is what closing a vote produced.
type EndVotingResult struct {
	RequestID uint                    `json:"quote_request_id"`
	Selection models.SelectedProvider `json:"selected_provider"`
	Project   models.Project          `json:"project"`
}

// VotingDeps groups the collaborators of VotingService. Store, Publisher and
// Flags may be nil.
type VotingDeps struct {
	Quotes      repository.QuoteRepository
	Votes       repository.VoteRepository
	Communities repository.CommunityRepository
	Store       *cache.Store
	Publisher   Publisher
	Flags       *featureflags.Manager
}

// NewVotingService wires the voting service.
func NewVotingService(d VotingDeps) *VotingService {
	return &VotingService{
		quotes:      d.Quotes,
		votes:       d.Votes,
		communities: d.Communities,
		store:       d.Store,
		publisher:   d.Publisher,
		flags:       d.Flags,
		now:         time.Now,
	}
}

// loadRequest fetches the request and checks the caller may see it.
func (s *VotingService) loadRequest(ctx context.Context, userID, requestID uint) (*models.QuoteRequest, error) {
	req, err := s.quotes.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.communities, req.CommunityID, userID); err != nil {
		return nil, err
	}
	return req, nil
}

// counts reads the vote aggregate through the tally cache.
func (s *VotingService) counts(ctx context.Context, requestID uint) ([]models.QuoteVoteCount, error) {
	var rows []models.QuoteVoteCount
	hit, err := s.store.AsideTally(ctx, requestID, &rows, func() error {
		var err error
		rows, err = s.votes.CountByRequest(ctx, requestID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.store.Enabled() {
		result := "miss"
		if hit {
			result = "hit"
		}
		observability.TallyCacheLookups.WithLabelValues(result).Inc()
	}
	return rows, nil
}

// VotingState presents the request, its ranked quotes and the caller's vote.
func (s *VotingService) VotingState(ctx context.Context, userID, requestID uint) (*VotingState, error) {
	span, ctx := observability.StartVotingSpan(ctx, "VotingState", requestID)
	defer span.End()

	req, err := s.loadRequest(ctx, userID, requestID)
	if err != nil {
		return nil, span.Fail(err)
	}
	quotes, err := s.quotes.ListQuotes(ctx, requestID)
	if err != nil {
		return nil, span.Fail(err)
	}
	counts, err := s.counts(ctx, requestID)
	if err != nil {
		return nil, span.Fail(err)
	}
	vote, err := s.votes.GetForVoter(ctx, requestID, userID)
	if err != nil {
		return nil, span.Fail(err)
	}

	tally := ComputeTally(quotes, counts)
	state := &VotingState{
		Request:      req,
		IsOpen:       req.IsOpen(),
		TotalVotes:   tally.TotalVotes,
		Quotes:       tally.Quotes,
		HasUserVoted: vote != nil,
	}
	if vote != nil {
		state.UserQuoteID = vote.ProviderQuoteID
	}
	if req.Community != nil {
		state.CommunityName = req.Community.Name
		state.CanClose = req.IsOpen() && req.Community.AdminID == userID
	}
	if !req.IsOpen() {
		if state.Selection, err = s.quotes.GetSelection(ctx, requestID); err != nil {
			return nil, span.Fail(err)
		}
	}
	span.Set(observability.AttrCommunityID.Int64(int64(req.CommunityID)), observability.AttrTotalVotes.Int64(tally.TotalVotes))
	return state, nil
}

// CastVote records or switches the caller's vote and returns the fresh aggregate.
func (s *VotingService) CastVote(ctx context.Context, userID, requestID, quoteID uint) (*VoteAggregate, error) {
	span, ctx := observability.StartVotingSpan(ctx, "CastVote", requestID, observability.AttrProviderQuoteID.Int64(int64(quoteID)))
	defer span.End()

	agg, err := s.castVote(ctx, userID, requestID, quoteID)
	if err != nil {
		return nil, span.Fail(err)
	}
	span.Set(observability.AttrTotalVotes.Int64(agg.TotalVotes))
	return agg, nil
}

func (s *VotingService) castVote(ctx context.Context, userID, requestID, quoteID uint) (*VoteAggregate, error) {
	req, err := s.loadRequest(ctx, userID, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsOpen() {
		return nil, models.NewConflictError("", "Voting for this quote request has ended")
	}
	quote, err := s.quotes.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.QuoteRequestID != requestID {
		return nil, models.NewValidationError("This quote does not belong to the quote request")
	}

	previous, err := s.votes.Upsert(ctx, requestID, quoteID, userID)
	if errors.Is(err, repository.ErrVotingAlreadyClosed) {
		return nil, models.NewConflictError("", "Voting for this quote request has ended")
	}
	if err != nil {
		return nil, err
	}
	switched := previous != 0 && previous != quoteID
	observability.VotesCast.WithLabelValues(boolLabel(switched)).Inc()

	s.store.InvalidateTally(ctx, requestID)
	rows, err := s.votes.CountByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	agg := ComputeAggregate(requestID, rows)
	s.publish(ctx, userID, requestID, notifications.EventTallyUpdated, agg)

	agg.UserQuoteID = quoteID
	return &agg, nil
}

// EndVoting closes the request on quoteID, or on the current leader when
// quoteID is nil, and creates the installation project.
func (s *VotingService) EndVoting(ctx context.Context, userID, requestID uint, quoteID *uint) (*EndVotingResult, error) {
	span, ctx := observability.StartVotingSpan(ctx, "EndVoting", requestID)
	defer span.End()

	res, err := s.endVoting(ctx, userID, requestID, quoteID)
	if err != nil {
		return nil, span.Fail(err)
	}
	span.Set(
		observability.AttrProviderQuoteID.Int64(int64(res.Selection.ProviderQuoteID)),
		observability.AttrProjectID.Int64(int64(res.Project.ID)),
	)
	return res, nil
}

func (s *VotingService) endVoting(ctx context.Context, userID, requestID uint, quoteID *uint) (*EndVotingResult, error) {
	req, err := s.quotes.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Community == nil || req.Community.AdminID != userID {
		return nil, models.NewForbiddenError("Only the community admin can end voting")
	}
	if !req.IsOpen() {
		return nil, models.NewConflictError("", "Voting for this quote request has already ended")
	}

	quote, err := s.winningQuote(ctx, requestID, quoteID)
	if err != nil {
		return nil, err
	}

	out, err := s.quotes.CloseVoting(ctx, repository.CloseVotingParams{
		Request:  req,
		Quote:    quote,
		ClosedAt: s.now().UTC(),
	})
	if errors.Is(err, repository.ErrVotingAlreadyClosed) {
		return nil, models.NewConflictError("", "Voting for this quote request has already ended")
	}
	if err != nil {
		return nil, err
	}
	observability.VotingClosed.Inc()

	s.store.InvalidateTally(ctx, requestID)
	res := &EndVotingResult{RequestID: requestID, Selection: out.Selection, Project: out.Project}
	s.publish(ctx, userID, requestID, notifications.EventVotingClosed, res)
	return res, nil
}

// winningQuote resolves the explicit choice, or the leader when there is none.
func (s *VotingService) winningQuote(ctx context.Context, requestID uint, quoteID *uint) (*models.ProviderQuote, error) {
	if quoteID != nil {
		quote, err := s.quotes.GetQuote(ctx, *quoteID)
		if err != nil {
			return nil, err
		}
		if quote.QuoteRequestID != requestID {
			return nil, models.NewValidationError("This quote does not belong to the quote request")
		}
		return quote, nil
	}

	quotes, err := s.quotes.ListQuotes(ctx, requestID)
	if err != nil {
		return nil, err
	}
	rows, err := s.votes.CountByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	leader := ComputeTally(quotes, rows).Leader()
	if leader == nil {
		return nil, models.NewValidationError("No votes have been cast yet; select a quote to end voting")
	}
	for i := range quotes {
		if quotes[i].ID == leader.QuoteID {
			return &quotes[i], nil
		}
	}
	return nil, models.NewInternalError(errors.New("leading quote vanished from the request"))
}

func (s *VotingService) publish(ctx context.Context, userID, requestID uint, eventType string, payload any) {
	if s.publisher == nil || !s.flags.Enabled(featureflags.LiveTally, userID) {
		return
	}
	if err := s.publisher.PublishVoting(ctx, requestID, eventType, payload); err != nil {
		slog.WarnContext(ctx, "publish voting event failed",
			slog.String("event_type", eventType),
			slog.Uint64("quote_request_id", uint64(requestID)),
			slog.String("error", err.Error()),
		)
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
