package server

import (
	"strings"

	"nidhi/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LoginInput is the login request payload.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the upstream token pair and resolved profile.
type LoginResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	User    LoginUserDTO `json:"user"`
}

// LoginUserDTO is the profile subset returned to the frontend after login.
type LoginUserDTO struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	CollegeID string `json:"college_id"`
	Role      string `json:"role"`
}

// Login handles POST /api/auth/login.
// @Summary Log in via the upstream identity service
// @Description Exchanges credentials for an upstream token pair and returns the caller's profile.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginInput true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewInvalidInputError("Invalid request body"))
	}

	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewInvalidInputError("Username and password are required"))
	}

	result, err := s.identityClient.Login(c.UserContext(), input.Username, input.Password)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(LoginResponse{
		Access:  result.AccessToken,
		Refresh: result.RefreshToken,
		User: LoginUserDTO{
			ID:        result.Profile.ID.String(),
			Username:  result.Profile.Username,
			Name:      result.Profile.Name,
			CollegeID: result.Profile.CollegeID,
			Role:      result.Profile.Role,
		},
	})
}
