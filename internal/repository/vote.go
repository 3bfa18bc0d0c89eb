package repository

import (
	"context"
	"errors"
	"time"

	"solarshare/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteRepository defines persistence operations for votes.
type VoteRepository interface {
	Upsert(ctx context.Context, requestID, quoteID, voterID uint) (previousQuoteID uint, err error)
	CountByRequest(ctx context.Context, requestID uint) ([]models.QuoteVoteCount, error)
	GetForVoter(ctx context.Context, requestID, voterID uint) (*models.Vote, error)
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository returns a new VoteRepository implementation.
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

// Upsert records the voter's choice for a request. An existing vote is moved to
// quoteID. It returns the previously chosen quote, or 0 for a first vote.
// The request row is share-locked while open, so a concurrent CloseVoting
// either waits for the vote or makes Upsert fail with ErrVotingAlreadyClosed.
func (r *voteRepository) Upsert(ctx context.Context, requestID, quoteID, voterID uint) (uint, error) {
	var previous uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open models.QuoteRequest
		err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthShare}).
			Select("id").
			Where("id = ? AND status = ?", requestID, models.QuoteRequestStatusOpen).
			Take(&open).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVotingAlreadyClosed
		}
		if err != nil {
			return err
		}

		var existing models.Vote
		err = tx.Where("quote_request_id = ? AND voter_id = ?", requestID, voterID).First(&existing).Error
		switch {
		case err == nil:
			previous = existing.ProviderQuoteID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		now := time.Now()
		vote := models.Vote{
			QuoteRequestID:  requestID,
			ProviderQuoteID: quoteID,
			VoterID:         voterID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "quote_request_id"}, {Name: "voter_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"provider_quote_id", "updated_at"}),
		}).Create(&vote).Error
	})
	if errors.Is(err, ErrVotingAlreadyClosed) {
		return 0, err
	}
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return previous, nil
}

// CountByRequest aggregates votes per quote for one request.
func (r *voteRepository) CountByRequest(ctx context.Context, requestID uint) ([]models.QuoteVoteCount, error) {
	var rows []models.QuoteVoteCount
	err := r.db.WithContext(ctx).Model(&models.Vote{}).
		Select("provider_quote_id, COUNT(*) AS votes").
		Where("quote_request_id = ?", requestID).
		Group("provider_quote_id").
		Order("provider_quote_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

// GetForVoter returns the voter's vote on a request, or nil, nil.
func (r *voteRepository) GetForVoter(ctx context.Context, requestID, voterID uint) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).Where("quote_request_id = ? AND voter_id = ?", requestID, voterID).First(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &vote, nil
}
