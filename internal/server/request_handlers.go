package server

import (
	"strings"

	"nidhi/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateRequestInput is the payload for requesting a new database.
type CreateRequestInput struct {
	DatabaseName string `json:"db_name"`
}

// CreateRequest handles POST /api/requests.
// @Summary Request a new database
// @Description Submits a provisioning request for admin review. Nothing is created on the cluster until approval.
// @Tags requests
// @Accept json
// @Produce json
// @Param request body CreateRequestInput true "Requested database name"
// @Success 201 {object} RequestDTO
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /requests [post]
func (s *Server) CreateRequest(c *fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return nil
	}

	var input CreateRequestInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewInvalidInputError("Invalid request body"))
	}

	req, err := s.provisioning.CreateRequest(c.UserContext(), caller, strings.TrimSpace(input.DatabaseName))
	if err != nil {
		return s.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toRequestDTO(*req))
}

// GetMyRequests handles GET /api/requests/me.
// @Summary List my provisioning requests
// @Description Lists the caller's requests, newest first.
// @Tags requests
// @Produce json
// @Success 200 {array} RequestDTO
// @Security BearerAuth
// @Router /requests/me [get]
func (s *Server) GetMyRequests(c *fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return nil
	}

	reqs, err := s.provisioning.ListForRequester(c.UserContext(), caller)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(toRequestDTOs(reqs))
}

// RevealCredentials handles POST /api/requests/:id/reveal.
// @Summary Reveal database credentials once
// @Description Returns the connection bundle exactly once; the stored secret is destroyed on read.
// @Tags requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} service.Credentials
// @Failure 404 {object} models.ErrorResponse
// @Failure 410 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /requests/{id}/reveal [post]
func (s *Server) RevealCredentials(c *fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return nil
	}
	id, err := s.parseRequestID(c)
	if err != nil {
		return nil
	}

	creds, err := s.provisioning.Reveal(c.UserContext(), caller, id)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(creds)
}

// RotatePasswordInput is the payload for choosing a replacement password.
type RotatePasswordInput struct {
	NewPassword string `json:"new_password"`
}

// RotatePassword handles POST /api/requests/:id/rotate-password.
// @Summary Rotate the database password
// @Description Sets a caller-chosen password on the provisioned role.
// @Tags requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param password body RotatePasswordInput true "New password (min 8 characters)"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /requests/{id}/rotate-password [post]
func (s *Server) RotatePassword(c *fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return nil
	}
	id, err := s.parseRequestID(c)
	if err != nil {
		return nil
	}

	var input RotatePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewInvalidInputError("Invalid request body"))
	}

	if err := s.provisioning.RotatePassword(c.UserContext(), caller, id, input.NewPassword); err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password updated"})
}

// DeleteRequest handles DELETE /api/requests/:id.
// @Summary Delete a provisioned database
// @Description Tears down the database and role on the cluster, then removes the request record.
// @Tags requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /requests/{id} [delete]
func (s *Server) DeleteRequest(c *fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return nil
	}
	id, err := s.parseRequestID(c)
	if err != nil {
		return nil
	}

	if err := s.provisioning.DeleteProvisioned(c.UserContext(), caller, id); err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Database deleted"})
}
