package repository

import (
	"context"
	"errors"
	"time"

	"solarshare/internal/models"

	"gorm.io/gorm"
)

// ErrVotingAlreadyClosed is returned when a close or a vote finds the request
// already closed.
var ErrVotingAlreadyClosed = errors.New("quote request is no longer open")

// CloseVotingParams selects the winning quote of a request.
type CloseVotingParams struct {
	Request  *models.QuoteRequest
	Quote    *models.ProviderQuote
	ClosedAt time.Time
}

// CloseVotingResult is what a successful close wrote.
type CloseVotingResult struct {
	Selection models.SelectedProvider
	Project   models.Project
}

// QuoteRepository defines persistence operations for quote requests and provider quotes.
type QuoteRepository interface {
	CreateRequest(ctx context.Context, req *models.QuoteRequest) error
	GetRequest(ctx context.Context, id uint) (*models.QuoteRequest, error)
	GetOpenRequest(ctx context.Context, communityID uint) (*models.QuoteRequest, error)
	ListRequests(ctx context.Context, communityID uint) ([]models.QuoteRequest, error)
	ListOpenRequests(ctx context.Context, limit int) ([]models.QuoteRequest, error)
	CreateQuote(ctx context.Context, quote *models.ProviderQuote) error
	GetQuote(ctx context.Context, id uint) (*models.ProviderQuote, error)
	ListQuotes(ctx context.Context, requestID uint) ([]models.ProviderQuote, error)
	ListQuotesByProvider(ctx context.Context, providerID uint) ([]models.ProviderQuote, error)
	GetSelection(ctx context.Context, requestID uint) (*models.SelectedProvider, error)
	CloseVoting(ctx context.Context, params CloseVotingParams) (*CloseVotingResult, error)
}

type quoteRepository struct {
	db *gorm.DB
}

// NewQuoteRepository returns a new QuoteRepository implementation.
func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &quoteRepository{db: db}
}

func (r *quoteRepository) CreateRequest(ctx context.Context, req *models.QuoteRequest) error {
	if err := r.db.WithContext(ctx).Omit("Community").Create(req).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("", "This community already has an open quote request")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// GetRequest loads a request with its community.
func (r *quoteRepository) GetRequest(ctx context.Context, id uint) (*models.QuoteRequest, error) {
	var req models.QuoteRequest
	if err := r.db.WithContext(ctx).Preload("Community").First(&req, id).Error; err != nil {
		return nil, notFoundOr(err, "Quote request", id)
	}
	return &req, nil
}

// GetOpenRequest returns the open request of a community, or nil, nil.
func (r *quoteRepository) GetOpenRequest(ctx context.Context, communityID uint) (*models.QuoteRequest, error) {
	var req models.QuoteRequest
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND status = ?", communityID, models.QuoteRequestStatusOpen).
		Order("id DESC").
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

func (r *quoteRepository) ListRequests(ctx context.Context, communityID uint) ([]models.QuoteRequest, error) {
	var reqs []models.QuoteRequest
	err := readDB(r.db).WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("created_at DESC").Order("id DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

// ListOpenRequests returns open requests across communities, newest first.
func (r *quoteRepository) ListOpenRequests(ctx context.Context, limit int) ([]models.QuoteRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var reqs []models.QuoteRequest
	err := readDB(r.db).WithContext(ctx).
		Preload("Community").
		Where("status = ?", models.QuoteRequestStatusOpen).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&reqs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

func (r *quoteRepository) CreateQuote(ctx context.Context, quote *models.ProviderQuote) error {
	if err := r.db.WithContext(ctx).Omit("Provider").Create(quote).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("", "You have already submitted a quote for this request")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *quoteRepository) GetQuote(ctx context.Context, id uint) (*models.ProviderQuote, error) {
	var quote models.ProviderQuote
	if err := r.db.WithContext(ctx).Preload("Provider").First(&quote, id).Error; err != nil {
		return nil, notFoundOr(err, "Quote", id)
	}
	return &quote, nil
}

// ListQuotes returns the quotes of a request with provider profiles, oldest first.
func (r *quoteRepository) ListQuotes(ctx context.Context, requestID uint) ([]models.ProviderQuote, error) {
	var quotes []models.ProviderQuote
	err := r.db.WithContext(ctx).
		Preload("Provider").
		Where("quote_request_id = ?", requestID).
		Order("id ASC").
		Find(&quotes).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return quotes, nil
}

func (r *quoteRepository) ListQuotesByProvider(ctx context.Context, providerID uint) ([]models.ProviderQuote, error) {
	var quotes []models.ProviderQuote
	err := readDB(r.db).WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at DESC").Order("id DESC").
		Find(&quotes).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return quotes, nil
}

// GetSelection returns the selected provider of a closed request, or nil, nil.
func (r *quoteRepository) GetSelection(ctx context.Context, requestID uint) (*models.SelectedProvider, error) {
	var sel models.SelectedProvider
	if err := r.db.WithContext(ctx).Where("quote_request_id = ?", requestID).First(&sel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &sel, nil
}

// CloseVoting closes the request, records the selection, creates the project and
// appends the outbox events in one transaction. A request that is no longer open
// yields ErrVotingAlreadyClosed and nothing is written.
func (r *quoteRepository) CloseVoting(ctx context.Context, p CloseVotingParams) (*CloseVotingResult, error) {
	var out CloseVotingResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.QuoteRequest{}).
			Where("id = ? AND status = ?", p.Request.ID, models.QuoteRequestStatusOpen).
			Updates(map[string]any{"status": models.QuoteRequestStatusClosed, "closed_at": p.ClosedAt})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVotingAlreadyClosed
		}

		out.Selection = models.SelectedProvider{
			QuoteRequestID:  p.Request.ID,
			ProviderQuoteID: p.Quote.ID,
			ProviderID:      p.Quote.ProviderID,
		}
		if err := tx.Create(&out.Selection).Error; err != nil {
			return err
		}

		eta := p.ClosedAt.Add(models.ProjectEstimatedDuration)
		out.Project = models.Project{
			CommunityID:             p.Request.CommunityID,
			ProviderID:              p.Quote.ProviderID,
			QuoteRequestID:          p.Request.ID,
			Status:                  models.ProjectStatusPlanning,
			ProgressPercentage:      0,
			TotalCost:               p.Quote.TotalCost,
			EstimatedCompletionDate: &eta,
		}
		if err := tx.Create(&out.Project).Error; err != nil {
			return err
		}

		if err := appendOutbox(tx, models.EventQuoteRequestClosed, p.Request.ID, models.QuoteRequestClosedPayload{
			QuoteRequestID:  p.Request.ID,
			CommunityID:     p.Request.CommunityID,
			ProviderQuoteID: p.Quote.ID,
			ProviderID:      p.Quote.ProviderID,
			ProjectID:       out.Project.ID,
			ClosedAt:        p.ClosedAt,
		}); err != nil {
			return err
		}
		return appendOutbox(tx, models.EventProjectCreated, out.Project.ID, models.ProjectCreatedPayload{
			ProjectID:               out.Project.ID,
			CommunityID:             out.Project.CommunityID,
			ProviderID:              out.Project.ProviderID,
			TotalCost:               out.Project.TotalCost.StringFixed(2),
			EstimatedCompletionDate: eta,
		})
	})
	if err != nil {
		if errors.Is(err, ErrVotingAlreadyClosed) {
			return nil, err
		}
		if isUniqueConstraintError(err) {
			return nil, ErrVotingAlreadyClosed
		}
		return nil, models.NewInternalError(err)
	}
	return &out, nil
}
