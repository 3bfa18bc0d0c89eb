package server

import "github.com/gofiber/fiber/v2"

// GetUserDashboard handles GET /api/dashboard
// @Summary Member dashboard
// @Tags dashboard
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.UserDashboard
// @Router /dashboard [get]
func (s *Server) GetUserDashboard(c *fiber.Ctx) error {
	dash, err := s.dashboardService.UserDashboard(c.UserContext(), userID(c))
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(dash)
}

// GetProviderDashboard handles GET /api/provider/dashboard
// @Summary Provider dashboard
// @Tags dashboard
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.ProviderDashboard
// @Failure 403 {object} models.ErrorResponse
// @Router /provider/dashboard [get]
func (s *Server) GetProviderDashboard(c *fiber.Ctx) error {
	dash, err := s.dashboardService.ProviderDashboard(c.UserContext(), userID(c))
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(dash)
}
