package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"solarshare/internal/models"
	"solarshare/internal/observability"
	"solarshare/internal/repository"
	"solarshare/internal/validation"
)

// maxCodeAttempts bounds retries after a join-code collision.
const maxCodeAttempts = 5

// CommunityService manages communities and memberships.
type CommunityService struct {
	communities repository.CommunityRepository
	newCode     func() (string, error)
}

// CreateCommunityInput is the create-community form.
type CreateCommunityInput struct {
	UserID      uint
	Name        string
	ZipCode     string
	Description string
}

// Membership is the caller's community with their role in it.
type Membership struct {
	Community   *models.Community    `json:"community"`
	Role        models.CommunityRole `json:"role"`
	MemberCount int64                `json:"member_count"`
	JoinedAt    *time.Time           `json:"joined_at,omitempty"`
}

// NewCommunityService returns a service generating join codes with crypto/rand.
func NewCommunityService(communities repository.CommunityRepository) *CommunityService {
	return &CommunityService{communities: communities, newCode: GenerateCommunityCode}
}

// GenerateCommunityCode returns a random join code of uppercase letters and digits.
func GenerateCommunityCode() (string, error) {
	alphabet := validation.CommunityCodeAlphabet
	limit := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(validation.CommunityCodeLength)
	for i := 0; i < validation.CommunityCodeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// CreateCommunity creates a community administered by the caller, who becomes
// its first member in the same transaction.
func (s *CommunityService) CreateCommunity(ctx context.Context, in CreateCommunityInput) (*models.Community, error) {
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateCommunityName(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	zip := strings.TrimSpace(in.ZipCode)
	if err := validation.ValidateZipCode(zip); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.communities.GetMembership(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError(models.CodeAlreadyInCommunity, "You are already a member of a community")
	}

	var description *string
	if d := strings.TrimSpace(in.Description); d != "" {
		description = &d
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		community := &models.Community{
			Name:          name,
			ZipCode:       zip,
			Description:   description,
			AdminID:       in.UserID,
			CommunityCode: code,
		}
		err = s.communities.CreateWithAdmin(ctx, community)
		if errors.Is(err, repository.ErrCommunityCodeTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		observability.CommunitiesCreated.Inc()
		return community, nil
	}
	return nil, models.NewInternalError(errors.New("could not allocate a unique community code"))
}

// JoinCommunity adds the caller to the community with code. Codes are case-insensitive.
func (s *CommunityService) JoinCommunity(ctx context.Context, userID uint, code string) (*models.Community, error) {
	code = validation.NormalizeCommunityCode(code)
	if code == "" {
		return nil, models.NewValidationError("Community code is required")
	}

	community, err := s.communities.GetByCode(ctx, code)
	if err != nil {
		observability.CommunityJoins.WithLabelValues("not_found").Inc()
		return nil, err
	}

	existing, err := s.communities.GetMembership(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.CommunityID == community.ID {
			observability.CommunityJoins.WithLabelValues("already_member").Inc()
			return nil, models.NewConflictError(models.CodeAlreadyMember, "You are already a member of this community")
		}
		observability.CommunityJoins.WithLabelValues("other_community").Inc()
		return nil, models.NewConflictError(models.CodeAlreadyInCommunity, "You are already a member of another community")
	}

	if err := s.communities.AddMember(ctx, community.ID, userID); err != nil {
		if models.HasCode(err, models.CodeAlreadyInCommunity) {
			observability.CommunityJoins.WithLabelValues("other_community").Inc()
		}
		return nil, err
	}
	observability.CommunityJoins.WithLabelValues("joined").Inc()
	return community, nil
}

// CheckMembership returns the caller's membership, or nil when they have none.
func (s *CommunityService) CheckMembership(ctx context.Context, userID uint) (*Membership, error) {
	member, err := s.communities.GetMembership(ctx, userID)
	if err != nil || member == nil {
		return nil, err
	}

	community := member.Community
	if community == nil {
		if community, err = s.communities.GetByID(ctx, member.CommunityID); err != nil {
			return nil, err
		}
	}
	count, err := s.communities.MemberCount(ctx, community.ID)
	if err != nil {
		return nil, err
	}

	role := models.CommunityRoleMember
	if community.AdminID == userID {
		role = models.CommunityRoleAdmin
	}
	joined := member.JoinedAt
	return &Membership{Community: community, Role: role, MemberCount: count, JoinedAt: &joined}, nil
}

// GetCommunity returns community details to its members.
func (s *CommunityService) GetCommunity(ctx context.Context, userID, communityID uint) (*Membership, error) {
	if err := requireMember(ctx, s.communities, communityID, userID); err != nil {
		return nil, err
	}
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	count, err := s.communities.MemberCount(ctx, communityID)
	if err != nil {
		return nil, err
	}
	role := models.CommunityRoleMember
	if community.AdminID == userID {
		role = models.CommunityRoleAdmin
	}
	return &Membership{Community: community, Role: role, MemberCount: count}, nil
}

// requireMember returns a forbidden error when userID is not in communityID.
func requireMember(ctx context.Context, communities repository.CommunityRepository, communityID, userID uint) error {
	ok, err := communities.IsMember(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewForbiddenError("You are not a member of this community")
	}
	return nil
}
