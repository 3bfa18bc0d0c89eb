package repository

import (
	"context"
	"errors"

	"solarshare/internal/cache"
	"solarshare/internal/models"

	"gorm.io/gorm"
)

// ErrCommunityCodeTaken is returned when a generated join code collides with an existing one.
var ErrCommunityCodeTaken = errors.New("community code already in use")

// CommunityRepository defines persistence operations for communities and memberships.
type CommunityRepository interface {
	CreateWithAdmin(ctx context.Context, community *models.Community) error
	GetByID(ctx context.Context, id uint) (*models.Community, error)
	GetByCode(ctx context.Context, code string) (*models.Community, error)
	GetMembership(ctx context.Context, userID uint) (*models.CommunityMember, error)
	AddMember(ctx context.Context, communityID, userID uint) error
	IsMember(ctx context.Context, communityID, userID uint) (bool, error)
	MemberCount(ctx context.Context, communityID uint) (int64, error)
	MemberCounts(ctx context.Context, communityIDs []uint) (map[uint]int64, error)
	ListMembers(ctx context.Context, communityID uint) ([]models.Profile, error)
}

type communityRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewCommunityRepository returns a new CommunityRepository implementation.
func NewCommunityRepository(db *gorm.DB, store *cache.Store) CommunityRepository {
	return &communityRepository{db: db, cache: store}
}

// CreateWithAdmin inserts the community and the admin's membership in one transaction.
func (r *communityRepository) CreateWithAdmin(ctx context.Context, community *models.Community) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Admin").Create(community).Error; err != nil {
			return err
		}
		member := models.CommunityMember{CommunityID: community.ID, UserID: community.AdminID}
		return tx.Omit("Community", "User").Create(&member).Error
	})
	if err == nil {
		r.cache.InvalidateProfile(ctx, community.AdminID)
		return nil
	}
	switch {
	case violates(err, "community_code"):
		return ErrCommunityCodeTaken
	case violates(err, "community_members"):
		return models.NewConflictError(models.CodeAlreadyInCommunity, "You are already a member of a community")
	case isUniqueConstraintError(err):
		return models.NewConflictError("", "Community already exists")
	}
	return models.NewInternalError(err)
}

func (r *communityRepository) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	var community models.Community
	_, err := r.cache.Aside(ctx, cache.CommunityKey(id), &community, cache.CommunityTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).Preload("Admin").First(&community, id).Error; err != nil {
			return notFoundOr(err, "Community", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &community, nil
}

// GetByCode looks up a normalized join code.
func (r *communityRepository) GetByCode(ctx context.Context, code string) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).Where("community_code = ?", code).First(&community).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage("Community not found")
		}
		return nil, models.NewInternalError(err)
	}
	return &community, nil
}

// GetMembership returns the user's membership with its community, or nil, nil.
func (r *communityRepository) GetMembership(ctx context.Context, userID uint) (*models.CommunityMember, error) {
	var cached struct {
		Member *models.CommunityMember `json:"member"`
	}
	_, err := r.cache.Aside(ctx, cache.MembershipKey(userID), &cached, cache.MembershipTTL, func() error {
		var member models.CommunityMember
		err := r.db.WithContext(ctx).Preload("Community").Where("user_id = ?", userID).First(&member).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			cached.Member = nil
		case err != nil:
			return models.NewInternalError(err)
		default:
			cached.Member = &member
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cached.Member, nil
}

// AddMember inserts a membership. The unique index on user_id rejects a second community.
func (r *communityRepository) AddMember(ctx context.Context, communityID, userID uint) error {
	member := models.CommunityMember{CommunityID: communityID, UserID: userID}
	if err := r.db.WithContext(ctx).Omit("Community", "User").Create(&member).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError(models.CodeAlreadyInCommunity, "You are already a member of a community")
		}
		return models.NewInternalError(err)
	}
	r.cache.InvalidateProfile(ctx, userID)
	r.cache.InvalidateCommunity(ctx, communityID)
	return nil
}

func (r *communityRepository) IsMember(ctx context.Context, communityID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// MemberCount reads the community_member_counts view.
func (r *communityRepository) MemberCount(ctx context.Context, communityID uint) (int64, error) {
	counts, err := r.MemberCounts(ctx, []uint{communityID})
	if err != nil {
		return 0, err
	}
	return counts[communityID], nil
}

func (r *communityRepository) MemberCounts(ctx context.Context, communityIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(communityIDs))
	if len(communityIDs) == 0 {
		return out, nil
	}
	var rows []models.CommunityMemberCount
	if err := readDB(r.db).WithContext(ctx).Where("community_id IN ?", communityIDs).Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		out[row.CommunityID] = row.MemberCount
	}
	return out, nil
}

// ListMembers returns the member profiles of a community, earliest joiner first.
func (r *communityRepository) ListMembers(ctx context.Context, communityID uint) ([]models.Profile, error) {
	var profiles []models.Profile
	err := readDB(r.db).WithContext(ctx).
		Joins("JOIN community_members ON community_members.user_id = profiles.id").
		Where("community_members.community_id = ?", communityID).
		Order("community_members.joined_at ASC").Order("profiles.id ASC").
		Find(&profiles).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return profiles, nil
}
