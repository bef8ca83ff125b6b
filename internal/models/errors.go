package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes returned by the provisioning core. The API layer maps these to
// transport statuses; nothing below the handlers knows about HTTP.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeAlreadyRevealed = "ALREADY_REVEALED"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeClusterFailed   = "CLUSTER_OPERATION_FAILED"
	CodeConflict        = "CONFLICT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeUpstreamDown    = "UPSTREAM_UNAVAILABLE"
	CodeInternal        = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found or already processed", resource, id),
	}
}

func NewAlreadyRevealedError() *AppError {
	return &AppError{
		Code:    CodeAlreadyRevealed,
		Message: "Credentials have already been viewed and were deleted",
	}
}

func NewInvalidInputError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
	}
}

func NewClusterError(operation string, err error) *AppError {
	return &AppError{
		Code:    CodeClusterFailed,
		Message: fmt.Sprintf("cluster operation %s failed", operation),
		Err:     err,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewUpstreamUnavailableError(service string, err error) *AppError {
	return &AppError{
		Code:    CodeUpstreamDown,
		Message: fmt.Sprintf("%s service is unavailable", service),
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
