package server

import (
	"errors"
	"time"

	"nidhi/internal/middleware"
	"nidhi/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseRequestID extracts the :id route parameter as a UUID.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseRequestID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewInvalidInputError("Invalid request ID"))
		return uuid.Nil, errResponseWritten
	}
	return id, nil
}

// caller returns the authenticated identity established by IdentityRequired.
// On a missing identity it writes a 401 response and returns errResponseWritten.
func (s *Server) caller(c *fiber.Ctx) (models.Identity, error) {
	id, ok := middleware.IdentityFromCtx(c)
	if !ok {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
		return models.Identity{}, errResponseWritten
	}
	return id, nil
}

// statusForError maps provisioning-core error codes to HTTP statuses. The
// codes themselves carry no transport knowledge.
func statusForError(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case models.CodeInvalidInput:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeConflict:
		return fiber.StatusConflict
	case models.CodeAlreadyRevealed:
		return fiber.StatusGone
	case models.CodeClusterFailed:
		return fiber.StatusBadGateway
	case models.CodeUpstreamDown:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the JSON error response for a provisioning-core error.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, statusForError(err), err)
}

// RequestDTO is the serialized view of a provisioning request. The one-time
// secret is never part of it; only its availability is.
type RequestDTO struct {
	ID              string  `json:"id"`
	RequesterName   string  `json:"requester_name"`
	DatabaseName    string  `json:"db_name"`
	DatabaseUser    string  `json:"db_user"`
	Status          string  `json:"status"`
	ApprovedBy      *string `json:"approved_by"`
	SecretAvailable bool    `json:"secret_available"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func toRequestDTO(r models.ProvisioningRequest) RequestDTO {
	return RequestDTO{
		ID:              r.ID.String(),
		RequesterName:   r.RequesterName,
		DatabaseName:    r.DatabaseName,
		DatabaseUser:    r.DatabaseUser,
		Status:          string(r.Status),
		ApprovedBy:      r.ApprovedBy,
		SecretAvailable: r.SecretAvailable(),
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       r.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toRequestDTOs(reqs []models.ProvisioningRequest) []RequestDTO {
	out := make([]RequestDTO, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toRequestDTO(r))
	}
	return out
}
