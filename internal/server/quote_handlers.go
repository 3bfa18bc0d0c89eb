package server

import (
	"solarshare/internal/models"
	"solarshare/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// SubmitQuoteRequest is a provider's offer.
type SubmitQuoteRequest struct {
	TotalCost decimal.Decimal     `json:"total_cost" swaggertype:"string"`
	Details   models.QuoteDetails `json:"details"`
}

// CreateQuoteRequest handles POST /api/communities/:id/quote-requests
// @Summary Open a quote request
// @Description Community admin only; at most one open request per community.
// @Tags quotes
// @Security BearerAuth
// @Produce json
// @Param id path int true "Community ID"
// @Success 201 {object} models.QuoteRequest
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /communities/{id}/quote-requests [post]
func (s *Server) CreateQuoteRequest(c *fiber.Ctx) error {
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	req, err := s.quoteService.CreateQuoteRequest(c.UserContext(), userID(c), communityID)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

// GetQuoteRequests handles GET /api/communities/:id/quote-requests
// @Summary List a community's quote requests
// @Tags quotes
// @Security BearerAuth
// @Produce json
// @Param id path int true "Community ID"
// @Success 200 {object} object{quote_requests=[]models.QuoteRequest}
// @Failure 403 {object} models.ErrorResponse
// @Router /communities/{id}/quote-requests [get]
func (s *Server) GetQuoteRequests(c *fiber.Ctx) error {
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	reqs, err := s.quoteService.ListQuoteRequests(c.UserContext(), userID(c), communityID)
	if err != nil {
		return respondWithAppError(c, err)
	}
	if reqs == nil {
		reqs = []models.QuoteRequest{}
	}
	return c.JSON(fiber.Map{"quote_requests": reqs})
}

// SubmitQuote handles POST /api/quote-requests/:id/quotes
// @Summary Submit a quote
// @Description Solar providers only; one quote per provider per open request.
// @Tags quotes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Quote request ID"
// @Param request body SubmitQuoteRequest true "Quote"
// @Success 201 {object} models.ProviderQuote
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /quote-requests/{id}/quotes [post]
func (s *Server) SubmitQuote(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req SubmitQuoteRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	quote, err := s.quoteService.SubmitQuote(c.UserContext(), service.SubmitQuoteInput{
		ProviderID: userID(c),
		RequestID:  requestID,
		TotalCost:  req.TotalCost,
		Details:    req.Details,
	})
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(quote)
}
