package server

import (
	"nidhi/internal/models"

	"github.com/gofiber/fiber/v2"
)

// dbInspectFlag gates the inspection endpoints; useful for staged rollout on
// clusters where the catalog queries are considered too chatty.
const dbInspectFlag = "db_inspect"

func (s *Server) inspectEnabled(c *fiber.Ctx, userID string) bool {
	if s.featureFlags.Enabled(dbInspectFlag, userID) {
		return true
	}
	_ = models.RespondWithError(c, fiber.StatusNotFound,
		models.NewNotFoundError("Resource", c.Path()))
	return false
}

// GetDatabaseSize handles GET /api/requests/:id/size.
// @Summary Get the on-disk size of a provisioned database
// @Tags requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /requests/{id}/size [get]
func (s *Server) GetDatabaseSize(c *fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return nil
	}
	if !s.inspectEnabled(c, caller.ID) {
		return nil
	}
	id, err := s.parseRequestID(c)
	if err != nil {
		return nil
	}

	size, err := s.provisioning.DatabaseSize(c.UserContext(), caller, id)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"size": size})
}

// ListTablesInput carries the credential proving the caller may browse the
// provisioned database's schema.
type ListTablesInput struct {
	Password string `json:"password"`
}

// ListTables handles POST /api/requests/:id/tables. POST rather than GET so
// the password travels in the body, never in a URL.
// @Summary List tables in a provisioned database
// @Description Connects as the provisioned role with the supplied password and lists user tables.
// @Tags requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param credentials body ListTablesInput true "Database password"
// @Success 200 {object} map[string][]string
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /requests/{id}/tables [post]
func (s *Server) ListTables(c *fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return nil
	}
	if !s.inspectEnabled(c, caller.ID) {
		return nil
	}
	id, err := s.parseRequestID(c)
	if err != nil {
		return nil
	}

	var input ListTablesInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewInvalidInputError("Invalid request body"))
	}
	if input.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewInvalidInputError("Password is required"))
	}

	tables, err := s.provisioning.ListTables(c.UserContext(), caller, id, input.Password)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"tables": tables})
}
