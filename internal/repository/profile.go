// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"solarshare/internal/cache"
	"solarshare/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetByConfirmationToken(ctx context.Context, token string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	UpdateContact(ctx context.Context, id uint, name, phone string) (*models.Profile, error)
	Confirm(ctx context.Context, id uint, at time.Time) error
}

type profileRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB, store *cache.Store) ProfileRepository {
	return &profileRepository{db: db, cache: store}
}

func (r *profileRepository) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	_, err := r.cache.Aside(ctx, cache.ProfileKey(id), &profile, cache.ProfileTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&profile, id).Error; err != nil {
			return notFoundOr(err, "Profile", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByEmail returns nil, nil when no profile uses email.
func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

func (r *profileRepository) GetByConfirmationToken(ctx context.Context, token string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("confirmation_token = ?", token).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage("Confirmation link is invalid or has already been used")
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("", "An account with this email already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *profileRepository) UpdateContact(ctx context.Context, id uint, name, phone string) (*models.Profile, error) {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).
		Updates(map[string]any{"name": name, "phone": phone, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Profile", id)
	}
	r.cache.InvalidateProfile(ctx, id)

	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, id).Error; err != nil {
		return nil, notFoundOr(err, "Profile", id)
	}
	return &profile, nil
}

// Confirm stamps email_confirmed_at and burns the confirmation token.
func (r *profileRepository) Confirm(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).
		Updates(map[string]any{"email_confirmed_at": at, "confirmation_token": nil, "updated_at": at})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Profile", id)
	}
	r.cache.InvalidateProfile(ctx, id)
	return nil
}
