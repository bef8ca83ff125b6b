package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetPendingRequests handles GET /api/admin/requests/pending.
// @Summary List pending provisioning requests
// @Description Lists requests awaiting review in the admin's tenant scope, oldest first.
// @Tags admin
// @Produce json
// @Success 200 {array} RequestDTO
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/requests/pending [get]
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return nil
	}

	reqs, err := s.provisioning.ListPending(c.UserContext(), caller)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(toRequestDTOs(reqs))
}

// ApproveRequest handles POST /api/admin/requests/:id/approve.
// @Summary Approve a provisioning request
// @Description Creates the role, database and grant on the cluster. The generated credentials are not returned; the requester reveals them separately.
// @Tags admin
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} service.ApprovalResult
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/requests/{id}/approve [post]
func (s *Server) ApproveRequest(c *fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return nil
	}
	id, err := s.parseRequestID(c)
	if err != nil {
		return nil
	}

	result, err := s.provisioning.Approve(c.UserContext(), caller, id)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(result)
}

// GetFeatureFlags handles GET /api/admin/feature-flags.
// @Summary View configured feature flags
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]any
// @Security BearerAuth
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	caller, err := s.caller(c)
	if err != nil {
		return nil
	}

	return c.JSON(fiber.Map{
		"flags":     s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(caller.ID),
	})
}
