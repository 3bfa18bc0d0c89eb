package server

import (
	"solarshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitEnergyRequest is the energy intake form.
type SubmitEnergyRequest struct {
	Entries []service.EnergyEntryInput `json:"entries"`
}

// GetBillingPeriods handles GET /api/energy/periods
// @Summary Selectable billing periods
// @Description The latest bi-monthly labels, oldest first, ending with the current period.
// @Tags energy
// @Produce json
// @Param count query int false "Number of periods (default 8, max 24)"
// @Success 200 {object} object{periods=[]string}
// @Router /energy/periods [get]
func (s *Server) GetBillingPeriods(c *fiber.Ctx) error {
	n := c.QueryInt("count", 0)
	if n > 24 {
		n = 24
	}
	return c.JSON(fiber.Map{"periods": s.energyService.BillingPeriods(n)})
}

// SubmitEnergyEntries handles POST /api/communities/:id/energy
// @Summary Submit consumption history
// @Description At least six distinct billing periods, all stored or none.
// @Tags energy
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Community ID"
// @Param request body SubmitEnergyRequest true "Entries"
// @Success 201 {object} object{entries=[]models.EnergyConsumption}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /communities/{id}/energy [post]
func (s *Server) SubmitEnergyEntries(c *fiber.Ctx) error {
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req SubmitEnergyRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	rows, err := s.energyService.SubmitEntries(c.UserContext(), userID(c), communityID, req.Entries)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"entries": rows})
}

// GetConsumptionReport handles GET /api/energy/consumption
// @Summary Consumption history and savings
// @Tags energy
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.ConsumptionReport
// @Failure 404 {object} models.ErrorResponse "No community"
// @Router /energy/consumption [get]
func (s *Server) GetConsumptionReport(c *fiber.Ctx) error {
	report, err := s.reportService.ConsumptionReport(c.UserContext(), userID(c))
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(report)
}
