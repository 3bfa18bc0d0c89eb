package server

import (
	"solarshare/internal/models"
	"solarshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UpdateProgressRequest moves a project forward.
type UpdateProgressRequest struct {
	Status   models.ProjectStatus `json:"status"`
	Progress int                  `json:"progress"`
}

// GetInstallationTracking handles GET /api/projects/tracking
// @Summary Installation projects of the caller's community
// @Tags projects
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{projects=[]repository.ProjectView}
// @Router /projects/tracking [get]
func (s *Server) GetInstallationTracking(c *fiber.Ctx) error {
	views, err := s.reportService.InstallationTracking(c.UserContext(), userID(c))
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"projects": views})
}

// UpdateProjectProgress handles PUT /api/projects/:id/progress
// @Summary Report installation progress
// @Description The project's provider only. Status and progress never move backwards.
// @Tags projects
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body UpdateProgressRequest true "Progress"
// @Success 200 {object} models.Project
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /projects/{id}/progress [put]
func (s *Server) UpdateProjectProgress(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req UpdateProgressRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	project, err := s.reportService.UpdateProjectProgress(c.UserContext(), service.ProgressInput{
		UserID:    userID(c),
		ProjectID: projectID,
		Status:    req.Status,
		Progress:  req.Progress,
	})
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(project)
}
