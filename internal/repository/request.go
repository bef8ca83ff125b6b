// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"nidhi/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestRepository defines persistence operations for provisioning requests.
type RequestRepository interface {
	Create(ctx context.Context, req *models.ProvisioningRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ProvisioningRequest, error)
	GetByIDForRequester(ctx context.Context, id uuid.UUID, requesterID string) (*models.ProvisioningRequest, error)
	ListByRequester(ctx context.Context, requesterID string) ([]models.ProvisioningRequest, error)
	ListPendingByScope(ctx context.Context, scope string) ([]models.ProvisioningRequest, error)
	ClaimPending(ctx context.Context, id uuid.UUID, version uint) error
	MarkApproved(ctx context.Context, id uuid.UUID, approvedBy, secret string) error
	MarkError(ctx context.Context, id uuid.UUID) error
	ConsumeSecret(ctx context.Context, id uuid.UUID) (string, error)
	Touch(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository returns a new RequestRepository implementation.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *models.ProvisioningRequest) error {
	// Both identifiers must be globally unique across BOTH columns: a new
	// database name may not collide with an existing role name either, since
	// databases and roles share the cluster namespace visible to users.
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProvisioningRequest{}).
		Where("database_name IN (?, ?) OR database_user IN (?, ?)",
			req.DatabaseName, req.DatabaseUser, req.DatabaseName, req.DatabaseUser).
		Count(&count).Error; err != nil {
		return models.NewInternalError(err)
	}
	if count > 0 {
		return models.NewConflictError("A database with this name has already been requested")
	}

	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A database with this name has already been requested")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505; sqlite reports "UNIQUE constraint failed"
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

func (r *requestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ProvisioningRequest, error) {
	var req models.ProvisioningRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

// GetByIDForRequester fetches a request only if it belongs to requesterID.
// A foreign ID yields the same not-found error as a missing record so
// ownership cannot be probed.
func (r *requestRepository) GetByIDForRequester(ctx context.Context, id uuid.UUID, requesterID string) (*models.ProvisioningRequest, error) {
	var req models.ProvisioningRequest
	if err := r.db.WithContext(ctx).
		Where("id = ? AND requester_id = ?", id, requesterID).
		First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

func (r *requestRepository) ListByRequester(ctx context.Context, requesterID string) ([]models.ProvisioningRequest, error) {
	var reqs []models.ProvisioningRequest
	if err := r.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("created_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

// ListPendingByScope returns pending requests oldest-first so admins review
// the longest-waiting requests first. ScopeAll bypasses college partitioning.
func (r *requestRepository) ListPendingByScope(ctx context.Context, scope string) ([]models.ProvisioningRequest, error) {
	q := r.db.WithContext(ctx).
		Where("status = ?", models.RequestStatusPending).
		Order("created_at ASC")
	if scope != models.ScopeAll {
		q = q.Where("college_id = ?", scope)
	}

	var reqs []models.ProvisioningRequest
	if err := q.Find(&reqs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

// ClaimPending bumps the optimistic-concurrency version of a pending request.
// Exactly one of any set of concurrent claimants succeeds; the rest observe
// zero rows updated and get a not-found error. The status stays pending, so a
// crash mid-approval leaves a record an operator can still see and retry.
func (r *requestRepository) ClaimPending(ctx context.Context, id uuid.UUID, version uint) error {
	res := r.db.WithContext(ctx).Model(&models.ProvisioningRequest{}).
		Where("id = ? AND status = ? AND version = ?", id, models.RequestStatusPending, version).
		Update("version", version+1)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Request", id)
	}
	return nil
}

func (r *requestRepository) MarkApproved(ctx context.Context, id uuid.UUID, approvedBy, secret string) error {
	res := r.db.WithContext(ctx).Model(&models.ProvisioningRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          models.RequestStatusApproved,
			"approved_by":     approvedBy,
			"one_time_secret": secret,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Request", id)
	}
	return nil
}

func (r *requestRepository) MarkError(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.ProvisioningRequest{}).
		Where("id = ?", id).
		Update("status", models.RequestStatusError)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Request", id)
	}
	return nil
}

// ConsumeSecret returns the stored one-time secret and clears it in a single
// conditional update. Concurrent reveals race on the update; the loser sees
// zero rows cleared and gets an already-revealed error.
func (r *requestRepository) ConsumeSecret(ctx context.Context, id uuid.UUID) (string, error) {
	var req models.ProvisioningRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", models.NewNotFoundError("Request", id)
		}
		return "", models.NewInternalError(err)
	}
	if !req.SecretAvailable() {
		return "", models.NewAlreadyRevealedError()
	}

	secret := *req.OneTimeSecret
	res := r.db.WithContext(ctx).Model(&models.ProvisioningRequest{}).
		Where("id = ? AND one_time_secret IS NOT NULL", id).
		Update("one_time_secret", nil)
	if res.Error != nil {
		return "", models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return "", models.NewAlreadyRevealedError()
	}

	return secret, nil
}

// Touch bumps updated_at without changing any business field, used after
// operations that mutate cluster state but not the record (password rotation).
func (r *requestRepository) Touch(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.ProvisioningRequest{}).
		Where("id = ?", id).
		Update("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Request", id)
	}
	return nil
}

func (r *requestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.ProvisioningRequest{}, "id = ?", id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
