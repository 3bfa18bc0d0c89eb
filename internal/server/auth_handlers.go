package server

import (
	"strings"

	"solarshare/internal/middleware"
	"solarshare/internal/models"
	"solarshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// claimsLocalKey holds the verified *middleware.TokenClaims of the request.
const claimsLocalKey = "tokenClaims"

// RegisterRequest is the sign-up body.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	IsSolarProvider bool   `json:"is_solar_provider"`
}

// Register handles POST /api/auth/register
// @Summary Register an account
// @Description Creates an unconfirmed profile and mails a confirmation link. Does not sign in.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration form"
// @Success 201 {object} object{message=string,user=models.Session}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	profile, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		Name:            req.Name,
		Phone:           req.Phone,
		IsSolarProvider: req.IsSolarProvider,
	})
	if err != nil {
		return respondWithAppError(c, err)
	}

	message := "Registration successful. Please check your email to confirm your account."
	if profile.Confirmed() {
		message = "Registration successful. You can sign in now."
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"user":    models.SessionOf(profile),
	})
}

// ConfirmEmail handles GET /api/auth/confirm
// @Summary Confirm an email address
// @Tags auth
// @Produce json
// @Param token query string true "Confirmation token"
// @Success 200 {object} object{message=string,user=models.Session}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/confirm [get]
func (s *Server) ConfirmEmail(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Confirmation token is required"))
	}
	profile, err := s.authService.Confirm(c.UserContext(), token)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Email confirmed",
		"user":    models.SessionOf(profile),
	})
}

// LoginRequest is the sign-in body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} service.LoginResult
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse "Email not confirmed"
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password are required"))
	}

	result, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(result)
}

// Logout handles POST /api/auth/logout
// @Summary Sign out
// @Description Revokes the presented token until it expires.
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := c.Locals(claimsLocalKey).(*middleware.TokenClaims)
	if err := s.authService.Logout(c.UserContext(), claims); err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// GetSession handles GET /api/auth/session
// @Summary Current user snapshot
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Session
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/session [get]
func (s *Server) GetSession(c *fiber.Ctx) error {
	session, err := s.authService.Session(c.UserContext(), userID(c))
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Account no longer exists"))
		}
		return respondWithAppError(c, err)
	}
	return c.JSON(session)
}

// UpdateProfileRequest holds the editable contact details.
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UpdateMyProfile handles PUT /api/profiles/me
// @Summary Update contact details
// @Tags profiles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Contact details"
// @Success 200 {object} models.Session
// @Failure 400 {object} models.ErrorResponse
// @Router /profiles/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	session, err := s.authService.UpdateProfile(c.UserContext(), userID(c), req.Name, req.Phone)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(session)
}
