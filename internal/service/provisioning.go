// Package service implements the provisioning state machine.
package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"nidhi/internal/cache"
	"nidhi/internal/cluster"
	"nidhi/internal/models"
	"nidhi/internal/observability"
	"nidhi/internal/repository"
	"nidhi/internal/secrets"
	"nidhi/internal/validation"

	"github.com/google/uuid"
)

// minRotatedPasswordLength is the minimum accepted length for caller-chosen
// replacement passwords.
const minRotatedPasswordLength = 8

// ProvisioningService drives provisioning requests through their lifecycle:
// pending -> approved (cluster resources created) -> deleted, with error as
// the terminal state for partial cluster failures.
type ProvisioningService struct {
	repo      repository.RequestRepository
	admin     cluster.Admin
	inspector cluster.Inspector
	host      string
	port      string
}

// Credentials is the one-time connection bundle returned by Reveal.
type Credentials struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	DatabaseName string `json:"db_name"`
	DatabaseUser string `json:"db_user"`
	Password     string `json:"password"`
}

// ApprovalResult reports what was provisioned. It never carries the secret;
// the requester retrieves that once, through Reveal.
type ApprovalResult struct {
	ID           uuid.UUID `json:"id"`
	DatabaseName string    `json:"db_name"`
	DatabaseUser string    `json:"db_user"`
}

// NewProvisioningService wires the state machine over its collaborators.
// host and port describe the target cluster as requesters should reach it.
func NewProvisioningService(repo repository.RequestRepository, admin cluster.Admin, inspector cluster.Inspector, host, port string) *ProvisioningService {
	return &ProvisioningService{
		repo:      repo,
		admin:     admin,
		inspector: inspector,
		host:      host,
		port:      port,
	}
}

// CreateRequest validates the requested database name, derives the role name
// and persists a pending request. Nothing touches the cluster here.
func (s *ProvisioningService) CreateRequest(ctx context.Context, caller models.Identity, databaseName string) (*models.ProvisioningRequest, error) {
	if err := validation.ValidateDatabaseName(databaseName); err != nil {
		return nil, models.NewInvalidInputError(err.Error())
	}

	req := &models.ProvisioningRequest{
		RequesterID:   caller.ID,
		RequesterName: caller.Name,
		CollegeID:     caller.CollegeID,
		DatabaseName:  databaseName,
		DatabaseUser:  validation.DeriveDatabaseUser(databaseName),
		Status:        models.RequestStatusPending,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	cache.InvalidatePending(ctx, req.CollegeID, models.ScopeAll)
	observability.RecordTransition("created_pending")
	slog.InfoContext(ctx, "provisioning request created",
		"request_id", req.ID, "db_name", req.DatabaseName, "requester_id", caller.ID)
	return req, nil
}

// Approve claims a pending request and creates the role, database and grant
// on the cluster, in that order. Exactly one concurrent approver wins the
// claim; losers get NotFound. Cluster failures mark the request as error and
// are surfaced without rollback: partial cluster state is reconciled
// manually, never by guessing here.
func (s *ProvisioningService) Approve(ctx context.Context, approver models.Identity, id uuid.UUID) (*ApprovalResult, error) {
	req, err := s.loadScoped(ctx, approver, id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestStatusPending {
		return nil, models.NewNotFoundError("Request", id)
	}

	if err := s.repo.ClaimPending(ctx, req.ID, req.Version); err != nil {
		return nil, err
	}

	secret, err := secrets.GeneratePassword(secrets.DefaultPasswordLength)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	steps := []func(context.Context) error{
		func(ctx context.Context) error { return s.admin.CreateRole(ctx, req.DatabaseUser, secret) },
		func(ctx context.Context) error { return s.admin.CreateDatabase(ctx, req.DatabaseName) },
		func(ctx context.Context) error {
			return s.admin.GrantAllPrivileges(ctx, req.DatabaseName, req.DatabaseUser)
		},
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			slog.ErrorContext(ctx, "cluster provisioning failed",
				"request_id", req.ID, "db_name", req.DatabaseName, "error", err)
			if markErr := s.repo.MarkError(ctx, req.ID); markErr != nil {
				slog.ErrorContext(ctx, "failed to mark request as error",
					"request_id", req.ID, "error", markErr)
			}
			cache.InvalidatePending(ctx, req.CollegeID, models.ScopeAll)
			observability.RecordTransition("pending_error")
			return nil, err
		}
	}

	if err := s.repo.MarkApproved(ctx, req.ID, approver.ID, secret); err != nil {
		return nil, err
	}

	cache.InvalidatePending(ctx, req.CollegeID, models.ScopeAll)
	observability.RecordTransition("pending_approved")
	slog.InfoContext(ctx, "provisioning request approved",
		"request_id", req.ID, "db_name", req.DatabaseName, "approved_by", approver.ID)
	return &ApprovalResult{ID: req.ID, DatabaseName: req.DatabaseName, DatabaseUser: req.DatabaseUser}, nil
}

// Reveal hands the requester their credentials exactly once. The stored
// secret is cleared in the same conditional update that reads it, so two
// racing reveals can never both see it.
func (s *ProvisioningService) Reveal(ctx context.Context, caller models.Identity, id uuid.UUID) (*Credentials, error) {
	req, err := s.repo.GetByIDForRequester(ctx, id, caller.ID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestStatusApproved {
		return nil, models.NewNotFoundError("Request", id)
	}

	secret, err := s.repo.ConsumeSecret(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "credentials revealed", "request_id", req.ID, "requester_id", caller.ID)
	return &Credentials{
		Host:         s.host,
		Port:         s.port,
		DatabaseName: req.DatabaseName,
		DatabaseUser: req.DatabaseUser,
		Password:     secret,
	}, nil
}

// RotatePassword sets a caller-chosen password on the provisioned role.
// Validation happens before any cluster call; a too-short password must not
// reach ALTER USER.
func (s *ProvisioningService) RotatePassword(ctx context.Context, caller models.Identity, id uuid.UUID, newPassword string) error {
	if len(newPassword) < minRotatedPasswordLength {
		return models.NewInvalidInputError("Password must be at least 8 characters")
	}

	req, err := s.repo.GetByIDForRequester(ctx, id, caller.ID)
	if err != nil {
		return err
	}
	if req.Status != models.RequestStatusApproved {
		return models.NewNotFoundError("Request", id)
	}

	if err := s.admin.AlterPassword(ctx, req.DatabaseUser, newPassword); err != nil {
		return err
	}

	slog.InfoContext(ctx, "password rotated", "request_id", req.ID, "db_user", req.DatabaseUser)
	return s.repo.Touch(ctx, req.ID)
}

// DeleteProvisioned tears down the database and role, then removes the
// record. Teardown order matters: live connections block DROP DATABASE, and
// the role cannot be dropped while it owns the database. Any failure leaves
// the record in place so the teardown can be retried.
func (s *ProvisioningService) DeleteProvisioned(ctx context.Context, caller models.Identity, id uuid.UUID) error {
	req, err := s.repo.GetByIDForRequester(ctx, id, caller.ID)
	if err != nil {
		return err
	}

	// Pending and rejected requests never touched the cluster.
	if req.Status == models.RequestStatusApproved || req.Status == models.RequestStatusError {
		if err := s.admin.TerminateConnections(ctx, req.DatabaseName); err != nil {
			return err
		}
		if err := s.admin.DropDatabase(ctx, req.DatabaseName); err != nil {
			return err
		}
		if err := s.admin.DropRole(ctx, req.DatabaseUser); err != nil {
			return err
		}
		cache.InvalidateDatabaseSize(ctx, req.DatabaseName)
	}

	if err := s.repo.Delete(ctx, req.ID); err != nil {
		return err
	}

	cache.InvalidatePending(ctx, req.CollegeID, models.ScopeAll)
	observability.RecordTransition("deleted")
	slog.InfoContext(ctx, "provisioned database deleted",
		"request_id", req.ID, "db_name", req.DatabaseName, "requester_id", caller.ID)
	return nil
}

// ListForRequester returns the caller's own requests, newest first.
func (s *ProvisioningService) ListForRequester(ctx context.Context, caller models.Identity) ([]models.ProvisioningRequest, error) {
	return s.repo.ListByRequester(ctx, caller.ID)
}

// ListPending returns the pending review queue for the approver's tenant
// scope, oldest first. The queue is cached briefly per scope; every queue
// mutation invalidates both the request's own scope and the superuser scope.
func (s *ProvisioningService) ListPending(ctx context.Context, approver models.Identity) ([]models.ProvisioningRequest, error) {
	scope := approver.Scope()
	payload, err := cache.Aside(ctx, cache.PendingKey(scope), cache.PendingTTL, func() (string, error) {
		reqs, err := s.repo.ListPendingByScope(ctx, scope)
		if err != nil {
			return "", err
		}
		encoded, err := json.Marshal(reqs)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	})
	if err != nil {
		return nil, err
	}

	var reqs []models.ProvisioningRequest
	if err := json.Unmarshal([]byte(payload), &reqs); err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

// DatabaseSize returns the on-disk size of a provisioned database, cached
// briefly since sizes move slowly and the query hits the cluster.
func (s *ProvisioningService) DatabaseSize(ctx context.Context, caller models.Identity, id uuid.UUID) (string, error) {
	req, err := s.loadOwnedOrScoped(ctx, caller, id)
	if err != nil {
		return "", err
	}
	if req.Status != models.RequestStatusApproved {
		return "", models.NewNotFoundError("Request", id)
	}

	return cache.Aside(ctx, cache.DatabaseSizeKey(req.DatabaseName), cache.DatabaseSizeTTL, func() (string, error) {
		return s.inspector.DatabaseSize(ctx, req.DatabaseName)
	})
}

// ListTables lists user tables in a provisioned database by connecting as
// the provisioned role with the caller-supplied password. The credential
// check is the connection itself.
func (s *ProvisioningService) ListTables(ctx context.Context, caller models.Identity, id uuid.UUID, password string) ([]string, error) {
	req, err := s.repo.GetByIDForRequester(ctx, id, caller.ID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestStatusApproved {
		return nil, models.NewNotFoundError("Request", id)
	}

	return s.inspector.ListTables(ctx, req.DatabaseName, req.DatabaseUser, password)
}

// loadScoped loads a request visible to an admin within their tenant scope.
// Requests outside the scope are indistinguishable from missing ones.
func (s *ProvisioningService) loadScoped(ctx context.Context, admin models.Identity, id uuid.UUID) (*models.ProvisioningRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if scope := admin.Scope(); scope != models.ScopeAll && req.CollegeID != scope {
		return nil, models.NewNotFoundError("Request", id)
	}
	return req, nil
}

// loadOwnedOrScoped resolves a request for either its owner or an admin
// whose scope covers it.
func (s *ProvisioningService) loadOwnedOrScoped(ctx context.Context, caller models.Identity, id uuid.UUID) (*models.ProvisioningRequest, error) {
	if caller.IsAdmin {
		return s.loadScoped(ctx, caller, id)
	}
	return s.repo.GetByIDForRequester(ctx, id, caller.ID)
}
