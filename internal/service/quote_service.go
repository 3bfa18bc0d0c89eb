package service

import (
	"context"

	"solarshare/internal/models"
	"solarshare/internal/observability"
	"solarshare/internal/repository"

	"github.com/shopspring/decimal"
)

// QuoteService runs the request-for-quote side of the workflow.
type QuoteService struct {
	quotes      repository.QuoteRepository
	communities repository.CommunityRepository
	profiles    repository.ProfileRepository
}

// SubmitQuoteInput is a provider's offer.
type SubmitQuoteInput struct {
	ProviderID uint
	RequestID  uint
	TotalCost  decimal.Decimal
	Details    models.QuoteDetails
}

// NewQuoteService wires the quote service.
func NewQuoteService(quotes repository.QuoteRepository, communities repository.CommunityRepository, profiles repository.ProfileRepository) *QuoteService {
	return &QuoteService{quotes: quotes, communities: communities, profiles: profiles}
}

// CreateQuoteRequest opens a request for the community. Only the admin may do
// it, and a community has at most one open request.
func (s *QuoteService) CreateQuoteRequest(ctx context.Context, userID, communityID uint) (*models.QuoteRequest, error) {
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if community.AdminID != userID {
		return nil, models.NewForbiddenError("Only the community admin can request quotes")
	}

	open, err := s.quotes.GetOpenRequest(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, models.NewConflictError("", "This community already has an open quote request")
	}

	req := &models.QuoteRequest{
		CommunityID: communityID,
		RequestedBy: userID,
		Status:      models.QuoteRequestStatusOpen,
	}
	if err := s.quotes.CreateRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ListQuoteRequests returns the community's requests to its members.
func (s *QuoteService) ListQuoteRequests(ctx context.Context, userID, communityID uint) ([]models.QuoteRequest, error) {
	if err := requireMember(ctx, s.communities, communityID, userID); err != nil {
		return nil, err
	}
	return s.quotes.ListRequests(ctx, communityID)
}

// SubmitQuote records a provider's offer on an open request.
func (s *QuoteService) SubmitQuote(ctx context.Context, in SubmitQuoteInput) (*models.ProviderQuote, error) {
	provider, err := s.profiles.GetByID(ctx, in.ProviderID)
	if err != nil {
		return nil, err
	}
	if !provider.IsSolarProvider {
		return nil, models.NewForbiddenError("Only solar providers can submit quotes")
	}
	if err := validateQuote(in); err != nil {
		return nil, err
	}

	req, err := s.quotes.GetRequest(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	if !req.IsOpen() {
		return nil, models.NewConflictError("", "This quote request is closed")
	}

	quote := &models.ProviderQuote{
		QuoteRequestID: req.ID,
		ProviderID:     provider.ID,
		TotalCost:      in.TotalCost.Round(2),
		Details:        in.Details,
	}
	if err := s.quotes.CreateQuote(ctx, quote); err != nil {
		return nil, err
	}
	quote.Provider = provider
	observability.QuotesSubmitted.Inc()
	return quote, nil
}

func validateQuote(in SubmitQuoteInput) error {
	switch {
	case !in.TotalCost.IsPositive():
		return models.NewValidationError("Total cost must be greater than 0")
	case in.Details.SystemSizeKW <= 0:
		return models.NewValidationError("System size must be greater than 0")
	case in.Details.PanelCount <= 0:
		return models.NewValidationError("Panel count must be greater than 0")
	case in.Details.WarrantyYears < 0:
		return models.NewValidationError("Warranty years must not be negative")
	case in.Details.EstimatedAnnualProductionKWh < 0:
		return models.NewValidationError("Estimated annual production must not be negative")
	}
	return nil
}
