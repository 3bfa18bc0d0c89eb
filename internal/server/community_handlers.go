package server

import (
	"solarshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateCommunityRequest is the create-community form.
type CreateCommunityRequest struct {
	Name        string `json:"name"`
	ZipCode     string `json:"zip_code"`
	Description string `json:"description"`
}

// JoinCommunityRequest carries a join code.
type JoinCommunityRequest struct {
	Code string `json:"code"`
}

// CreateCommunity handles POST /api/communities
// @Summary Create a community
// @Description The caller becomes admin and first member. Refused when the caller already belongs to a community.
// @Tags communities
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CreateCommunityRequest true "Community"
// @Success 201 {object} models.Community
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /communities [post]
func (s *Server) CreateCommunity(c *fiber.Ctx) error {
	var req CreateCommunityRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	community, err := s.communityService.CreateCommunity(c.UserContext(), service.CreateCommunityInput{
		UserID:      userID(c),
		Name:        req.Name,
		ZipCode:     req.ZipCode,
		Description: req.Description,
	})
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(community)
}

// JoinCommunity handles POST /api/communities/join
// @Summary Join a community by code
// @Description Codes are case-insensitive.
// @Tags communities
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body JoinCommunityRequest true "Join code"
// @Success 200 {object} models.Community
// @Failure 404 {object} models.ErrorResponse "Community not found"
// @Failure 409 {object} models.ErrorResponse "ALREADY_MEMBER or ALREADY_IN_COMMUNITY"
// @Router /communities/join [post]
func (s *Server) JoinCommunity(c *fiber.Ctx) error {
	var req JoinCommunityRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	community, err := s.communityService.JoinCommunity(c.UserContext(), userID(c), req.Code)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(community)
}

// GetMyMembership handles GET /api/communities/membership/me
// @Summary The caller's community
// @Description Returns null membership when the caller has not joined a community.
// @Tags communities
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{membership=service.Membership}
// @Router /communities/membership/me [get]
func (s *Server) GetMyMembership(c *fiber.Ctx) error {
	membership, err := s.communityService.CheckMembership(c.UserContext(), userID(c))
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"membership": membership})
}

// GetCommunity handles GET /api/communities/:id
// @Summary Community details
// @Tags communities
// @Security BearerAuth
// @Produce json
// @Param id path int true "Community ID"
// @Success 200 {object} service.Membership
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /communities/{id} [get]
func (s *Server) GetCommunity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	details, err := s.communityService.GetCommunity(c.UserContext(), userID(c), id)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(details)
}
