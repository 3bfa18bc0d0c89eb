package server

import (
	"solarshare/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CastVoteRequest names the quote the caller votes for.
type CastVoteRequest struct {
	QuoteID uint `json:"quote_id"`
}

// EndVotingRequest optionally names the winning quote; the leader wins otherwise.
type EndVotingRequest struct {
	QuoteID *uint `json:"quote_id"`
}

// GetVotingState handles GET /api/quote-requests/:id/voting
// @Summary Voting page state
// @Description Quotes sorted by votes with percentages, the leader, and whether the caller voted.
// @Tags voting
// @Security BearerAuth
// @Produce json
// @Param id path int true "Quote request ID"
// @Success 200 {object} service.VotingState
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /quote-requests/{id}/voting [get]
func (s *Server) GetVotingState(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	state, err := s.votingService.VotingState(c.UserContext(), userID(c), requestID)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(state)
}

// CastVote handles POST /api/quote-requests/:id/votes
// @Summary Vote for a quote
// @Description Casting again moves the caller's single vote. Returns the refreshed aggregate of this request only.
// @Tags voting
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Quote request ID"
// @Param request body CastVoteRequest true "Vote"
// @Success 200 {object} service.VoteAggregate
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Voting closed"
// @Router /quote-requests/{id}/votes [post]
func (s *Server) CastVote(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req CastVoteRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.QuoteID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("quote_id is required"))
	}
	agg, err := s.votingService.CastVote(c.UserContext(), userID(c), requestID, req.QuoteID)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(agg)
}

// EndVoting handles POST /api/quote-requests/:id/end
// @Summary Close voting and select a provider
// @Description Community admin only. Closes the request, records the selection and creates the project atomically.
// @Tags voting
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Quote request ID"
// @Param request body EndVotingRequest false "Winning quote"
// @Success 200 {object} service.EndVotingResult
// @Failure 400 {object} models.ErrorResponse "No votes and no quote chosen"
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Already closed"
// @Router /quote-requests/{id}/end [post]
func (s *Server) EndVoting(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req EndVotingRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}
	result, err := s.votingService.EndVoting(c.UserContext(), userID(c), requestID, req.QuoteID)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(result)
}
