package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"nidhi/internal/cache"
	"nidhi/internal/models"
	"nidhi/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// requestRepoStub is a stub for repository.RequestRepository.
type requestRepoStub struct {
	createFn              func(context.Context, *models.ProvisioningRequest) error
	getByIDFn             func(context.Context, uuid.UUID) (*models.ProvisioningRequest, error)
	getByIDForRequesterFn func(context.Context, uuid.UUID, string) (*models.ProvisioningRequest, error)
	listByRequesterFn     func(context.Context, string) ([]models.ProvisioningRequest, error)
	listPendingByScopeFn  func(context.Context, string) ([]models.ProvisioningRequest, error)
	claimPendingFn        func(context.Context, uuid.UUID, uint) error
	markApprovedFn        func(context.Context, uuid.UUID, string, string) error
	markErrorFn           func(context.Context, uuid.UUID) error
	consumeSecretFn       func(context.Context, uuid.UUID) (string, error)
	touchFn               func(context.Context, uuid.UUID) error
	deleteFn              func(context.Context, uuid.UUID) error
}

func (s *requestRepoStub) Create(ctx context.Context, req *models.ProvisioningRequest) error {
	return s.createFn(ctx, req)
}
func (s *requestRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*models.ProvisioningRequest, error) {
	return s.getByIDFn(ctx, id)
}
func (s *requestRepoStub) GetByIDForRequester(ctx context.Context, id uuid.UUID, requesterID string) (*models.ProvisioningRequest, error) {
	return s.getByIDForRequesterFn(ctx, id, requesterID)
}
func (s *requestRepoStub) ListByRequester(ctx context.Context, requesterID string) ([]models.ProvisioningRequest, error) {
	return s.listByRequesterFn(ctx, requesterID)
}
func (s *requestRepoStub) ListPendingByScope(ctx context.Context, scope string) ([]models.ProvisioningRequest, error) {
	return s.listPendingByScopeFn(ctx, scope)
}
func (s *requestRepoStub) ClaimPending(ctx context.Context, id uuid.UUID, version uint) error {
	return s.claimPendingFn(ctx, id, version)
}
func (s *requestRepoStub) MarkApproved(ctx context.Context, id uuid.UUID, approvedBy, secret string) error {
	return s.markApprovedFn(ctx, id, approvedBy, secret)
}
func (s *requestRepoStub) MarkError(ctx context.Context, id uuid.UUID) error {
	return s.markErrorFn(ctx, id)
}
func (s *requestRepoStub) ConsumeSecret(ctx context.Context, id uuid.UUID) (string, error) {
	return s.consumeSecretFn(ctx, id)
}
func (s *requestRepoStub) Touch(ctx context.Context, id uuid.UUID) error {
	return s.touchFn(ctx, id)
}
func (s *requestRepoStub) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteFn(ctx, id)
}

func noopRequestRepo() *requestRepoStub {
	return &requestRepoStub{
		createFn: func(_ context.Context, _ *models.ProvisioningRequest) error { return nil },
		getByIDFn: func(_ context.Context, id uuid.UUID) (*models.ProvisioningRequest, error) {
			return &models.ProvisioningRequest{ID: id}, nil
		},
		getByIDForRequesterFn: func(_ context.Context, id uuid.UUID, _ string) (*models.ProvisioningRequest, error) {
			return &models.ProvisioningRequest{ID: id}, nil
		},
		listByRequesterFn:    func(_ context.Context, _ string) ([]models.ProvisioningRequest, error) { return nil, nil },
		listPendingByScopeFn: func(_ context.Context, _ string) ([]models.ProvisioningRequest, error) { return nil, nil },
		claimPendingFn:       func(_ context.Context, _ uuid.UUID, _ uint) error { return nil },
		markApprovedFn:       func(_ context.Context, _ uuid.UUID, _, _ string) error { return nil },
		markErrorFn:          func(_ context.Context, _ uuid.UUID) error { return nil },
		consumeSecretFn:      func(_ context.Context, _ uuid.UUID) (string, error) { return "", nil },
		touchFn:              func(_ context.Context, _ uuid.UUID) error { return nil },
		deleteFn:             func(_ context.Context, _ uuid.UUID) error { return nil },
	}
}

// clusterStub records admin and inspector calls in order and fails the
// operations listed in failOn.
type clusterStub struct {
	calls  []string
	failOn map[string]error
	tables []string
	size   string
}

func newClusterStub() *clusterStub {
	return &clusterStub{failOn: map[string]error{}, size: "8192 kB"}
}

func (c *clusterStub) record(op string) error {
	c.calls = append(c.calls, op)
	if err, ok := c.failOn[op]; ok {
		return err
	}
	return nil
}

func (c *clusterStub) CreateRole(_ context.Context, _, _ string) error { return c.record("create_role") }
func (c *clusterStub) CreateDatabase(_ context.Context, _ string) error {
	return c.record("create_database")
}
func (c *clusterStub) GrantAllPrivileges(_ context.Context, _, _ string) error {
	return c.record("grant_privileges")
}
func (c *clusterStub) TerminateConnections(_ context.Context, _ string) error {
	return c.record("terminate_connections")
}
func (c *clusterStub) DropDatabase(_ context.Context, _ string) error {
	return c.record("drop_database")
}
func (c *clusterStub) DropRole(_ context.Context, _ string) error { return c.record("drop_role") }
func (c *clusterStub) AlterPassword(_ context.Context, _, _ string) error {
	return c.record("alter_password")
}
func (c *clusterStub) DatabaseSize(_ context.Context, _ string) (string, error) {
	return c.size, c.record("database_size")
}
func (c *clusterStub) ListTables(_ context.Context, _, _, _ string) ([]string, error) {
	return c.tables, c.record("list_tables")
}

var (
	student = models.Identity{ID: "student-1", Name: "Asha", CollegeID: "eng"}
	admin   = models.Identity{ID: "admin-1", Name: "Ravi", CollegeID: "eng", IsAdmin: true}
)

func newService(repo repository.RequestRepository, cl *clusterStub) *ProvisioningService {
	return NewProvisioningService(repo, cl, cl, "db.example.edu", "5432")
}

func TestCreateRequest(t *testing.T) {
	t.Run("valid name persists a pending request with derived user", func(t *testing.T) {
		repo := noopRequestRepo()
		var created *models.ProvisioningRequest
		repo.createFn = func(_ context.Context, req *models.ProvisioningRequest) error {
			created = req
			return nil
		}

		svc := newService(repo, newClusterStub())
		req, err := svc.CreateRequest(context.Background(), student, "cs101-web")
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "cs101-web", req.DatabaseName)
		assert.Equal(t, "cs101_web_user", req.DatabaseUser)
		assert.Equal(t, models.RequestStatusPending, req.Status)
		assert.Equal(t, "student-1", req.RequesterID)
		assert.Equal(t, "eng", req.CollegeID)
	})

	t.Run("invalid name never reaches the store", func(t *testing.T) {
		repo := noopRequestRepo()
		repo.createFn = func(_ context.Context, _ *models.ProvisioningRequest) error {
			t.Fatal("create must not be called for invalid names")
			return nil
		}

		svc := newService(repo, newClusterStub())
		for _, name := range []string{"", "1starts-with-digit", "Has-Upper", "postgres", "x; DROP TABLE"} {
			_, err := svc.CreateRequest(context.Background(), student, name)
			require.Error(t, err, "name %q", name)
			appErr, ok := err.(*models.AppError)
			require.True(t, ok)
			assert.Equal(t, models.CodeInvalidInput, appErr.Code)
		}
	})

	t.Run("store conflict surfaces unchanged", func(t *testing.T) {
		repo := noopRequestRepo()
		repo.createFn = func(_ context.Context, _ *models.ProvisioningRequest) error {
			return models.NewConflictError("taken")
		}

		svc := newService(repo, newClusterStub())
		_, err := svc.CreateRequest(context.Background(), student, "gooddb")
		require.Error(t, err)
		assert.Equal(t, models.CodeConflict, err.(*models.AppError).Code)
	})
}

func pendingRequest(id uuid.UUID) *models.ProvisioningRequest {
	return &models.ProvisioningRequest{
		ID:           id,
		RequesterID:  "student-1",
		CollegeID:    "eng",
		DatabaseName: "cs101_web",
		DatabaseUser: "cs101_web_user",
		Status:       models.RequestStatusPending,
	}
}

func TestApprove_Success(t *testing.T) {
	id := uuid.New()
	repo := noopRequestRepo()
	repo.getByIDFn = func(_ context.Context, _ uuid.UUID) (*models.ProvisioningRequest, error) {
		return pendingRequest(id), nil
	}
	var storedSecret, storedApprover string
	repo.markApprovedFn = func(_ context.Context, _ uuid.UUID, approvedBy, secret string) error {
		storedApprover, storedSecret = approvedBy, secret
		return nil
	}

	cl := newClusterStub()
	svc := newService(repo, cl)

	result, err := svc.Approve(context.Background(), admin, id)
	require.NoError(t, err)

	assert.Equal(t, []string{"create_role", "create_database", "grant_privileges"}, cl.calls)
	assert.Equal(t, "admin-1", storedApprover)
	assert.Len(t, storedSecret, 16)
	assert.Equal(t, "cs101_web", result.DatabaseName)
	assert.Equal(t, "cs101_web_user", result.DatabaseUser)
}

func TestApprove_ClusterFailureMarksError(t *testing.T) {
	id := uuid.New()
	repo := noopRequestRepo()
	repo.getByIDFn = func(_ context.Context, _ uuid.UUID) (*models.ProvisioningRequest, error) {
		return pendingRequest(id), nil
	}
	markedError := false
	repo.markErrorFn = func(_ context.Context, _ uuid.UUID) error {
		markedError = true
		return nil
	}
	repo.markApprovedFn = func(_ context.Context, _ uuid.UUID, _, _ string) error {
		t.Fatal("a failed approval must not be marked approved")
		return nil
	}

	cl := newClusterStub()
	cl.failOn["create_database"] = models.NewClusterError("create_database", errors.New("disk full"))
	svc := newService(repo, cl)

	_, err := svc.Approve(context.Background(), admin, id)
	require.Error(t, err)
	assert.Equal(t, models.CodeClusterFailed, err.(*models.AppError).Code)
	assert.True(t, markedError)
	// The role created before the failure is intentionally left in place.
	assert.Equal(t, []string{"create_role", "create_database"}, cl.calls)
}

func TestApprove_RaceLoserGetsNotFound(t *testing.T) {
	id := uuid.New()
	repo := noopRequestRepo()
	repo.getByIDFn = func(_ context.Context, _ uuid.UUID) (*models.ProvisioningRequest, error) {
		return pendingRequest(id), nil
	}
	repo.claimPendingFn = func(_ context.Context, _ uuid.UUID, _ uint) error {
		return models.NewNotFoundError("Request", id)
	}

	cl := newClusterStub()
	svc := newService(repo, cl)

	_, err := svc.Approve(context.Background(), admin, id)
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, err.(*models.AppError).Code)
	assert.Empty(t, cl.calls, "a lost claim must not touch the cluster")
}

func TestApprove_OutOfScopeIsNotFound(t *testing.T) {
	id := uuid.New()
	repo := noopRequestRepo()
	repo.getByIDFn = func(_ context.Context, _ uuid.UUID) (*models.ProvisioningRequest, error) {
		req := pendingRequest(id)
		req.CollegeID = "sci"
		return req, nil
	}

	cl := newClusterStub()
	svc := newService(repo, cl)

	_, err := svc.Approve(context.Background(), admin, id)
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, err.(*models.AppError).Code)
	assert.Empty(t, cl.calls)
}

func TestReveal(t *testing.T) {
	id := uuid.New()
	secret := "one-time-pass"

	t.Run("returns the full connection bundle once", func(t *testing.T) {
		repo := noopRequestRepo()
		repo.getByIDForRequesterFn = func(_ context.Context, _ uuid.UUID, _ string) (*models.ProvisioningRequest, error) {
			req := pendingRequest(id)
			req.Status = models.RequestStatusApproved
			req.OneTimeSecret = &secret
			return req, nil
		}
		repo.consumeSecretFn = func(_ context.Context, _ uuid.UUID) (string, error) {
			return secret, nil
		}

		svc := newService(repo, newClusterStub())
		creds, err := svc.Reveal(context.Background(), student, id)
		require.NoError(t, err)
		assert.Equal(t, "db.example.edu", creds.Host)
		assert.Equal(t, "5432", creds.Port)
		assert.Equal(t, "cs101_web", creds.DatabaseName)
		assert.Equal(t, "cs101_web_user", creds.DatabaseUser)
		assert.Equal(t, secret, creds.Password)
	})

	t.Run("consumed secret reports already revealed", func(t *testing.T) {
		repo := noopRequestRepo()
		repo.getByIDForRequesterFn = func(_ context.Context, _ uuid.UUID, _ string) (*models.ProvisioningRequest, error) {
			req := pendingRequest(id)
			req.Status = models.RequestStatusApproved
			return req, nil
		}
		repo.consumeSecretFn = func(_ context.Context, _ uuid.UUID) (string, error) {
			return "", models.NewAlreadyRevealedError()
		}

		svc := newService(repo, newClusterStub())
		_, err := svc.Reveal(context.Background(), student, id)
		require.Error(t, err)
		assert.Equal(t, models.CodeAlreadyRevealed, err.(*models.AppError).Code)
	})

	t.Run("pending request has nothing to reveal", func(t *testing.T) {
		repo := noopRequestRepo()
		repo.getByIDForRequesterFn = func(_ context.Context, _ uuid.UUID, _ string) (*models.ProvisioningRequest, error) {
			return pendingRequest(id), nil
		}

		svc := newService(repo, newClusterStub())
		_, err := svc.Reveal(context.Background(), student, id)
		require.Error(t, err)
		assert.Equal(t, models.CodeNotFound, err.(*models.AppError).Code)
	})
}

func TestRotatePassword(t *testing.T) {
	id := uuid.New()

	approvedRepo := func() *requestRepoStub {
		repo := noopRequestRepo()
		repo.getByIDForRequesterFn = func(_ context.Context, _ uuid.UUID, _ string) (*models.ProvisioningRequest, error) {
			req := pendingRequest(id)
			req.Status = models.RequestStatusApproved
			return req, nil
		}
		return repo
	}

	t.Run("short password is rejected before any cluster call", func(t *testing.T) {
		cl := newClusterStub()
		svc := newService(approvedRepo(), cl)

		err := svc.RotatePassword(context.Background(), student, id, "short")
		require.Error(t, err)
		assert.Equal(t, models.CodeInvalidInput, err.(*models.AppError).Code)
		assert.Empty(t, cl.calls)
	})

	t.Run("valid password alters the role and touches the record", func(t *testing.T) {
		repo := approvedRepo()
		touched := false
		repo.touchFn = func(_ context.Context, _ uuid.UUID) error {
			touched = true
			return nil
		}
		cl := newClusterStub()
		svc := newService(repo, cl)

		require.NoError(t, svc.RotatePassword(context.Background(), student, id, "longenough"))
		assert.Equal(t, []string{"alter_password"}, cl.calls)
		assert.True(t, touched)
	})

	t.Run("cluster failure leaves the record untouched", func(t *testing.T) {
		repo := approvedRepo()
		repo.touchFn = func(_ context.Context, _ uuid.UUID) error {
			t.Fatal("touch must not run when the cluster call fails")
			return nil
		}
		cl := newClusterStub()
		cl.failOn["alter_password"] = models.NewClusterError("alter_password", errors.New("role missing"))
		svc := newService(repo, cl)

		err := svc.RotatePassword(context.Background(), student, id, "longenough")
		require.Error(t, err)
		assert.Equal(t, models.CodeClusterFailed, err.(*models.AppError).Code)
	})
}

func TestDeleteProvisioned(t *testing.T) {
	id := uuid.New()

	repoWithStatus := func(status models.RequestStatus, deleted *bool) *requestRepoStub {
		repo := noopRequestRepo()
		repo.getByIDForRequesterFn = func(_ context.Context, _ uuid.UUID, _ string) (*models.ProvisioningRequest, error) {
			req := pendingRequest(id)
			req.Status = status
			return req, nil
		}
		repo.deleteFn = func(_ context.Context, _ uuid.UUID) error {
			*deleted = true
			return nil
		}
		return repo
	}

	t.Run("approved request tears down in order then deletes", func(t *testing.T) {
		deleted := false
		cl := newClusterStub()
		svc := newService(repoWithStatus(models.RequestStatusApproved, &deleted), cl)

		require.NoError(t, svc.DeleteProvisioned(context.Background(), student, id))
		assert.Equal(t, []string{"terminate_connections", "drop_database", "drop_role"}, cl.calls)
		assert.True(t, deleted)
	})

	t.Run("drop role failure preserves the record", func(t *testing.T) {
		deleted := false
		cl := newClusterStub()
		cl.failOn["drop_role"] = models.NewClusterError("drop_role", errors.New("role owns objects"))
		svc := newService(repoWithStatus(models.RequestStatusApproved, &deleted), cl)

		err := svc.DeleteProvisioned(context.Background(), student, id)
		require.Error(t, err)
		assert.Equal(t, models.CodeClusterFailed, err.(*models.AppError).Code)
		assert.False(t, deleted, "record must survive a partial teardown")
	})

	t.Run("pending request deletes without touching the cluster", func(t *testing.T) {
		deleted := false
		cl := newClusterStub()
		svc := newService(repoWithStatus(models.RequestStatusPending, &deleted), cl)

		require.NoError(t, svc.DeleteProvisioned(context.Background(), student, id))
		assert.Empty(t, cl.calls)
		assert.True(t, deleted)
	})

	t.Run("errored request still attempts cluster teardown", func(t *testing.T) {
		deleted := false
		cl := newClusterStub()
		svc := newService(repoWithStatus(models.RequestStatusError, &deleted), cl)

		require.NoError(t, svc.DeleteProvisioned(context.Background(), student, id))
		assert.Equal(t, []string{"terminate_connections", "drop_database", "drop_role"}, cl.calls)
		assert.True(t, deleted)
	})
}

func TestInspection(t *testing.T) {
	id := uuid.New()

	approvedRepo := func() *requestRepoStub {
		repo := noopRequestRepo()
		load := func() (*models.ProvisioningRequest, error) {
			req := pendingRequest(id)
			req.Status = models.RequestStatusApproved
			return req, nil
		}
		repo.getByIDForRequesterFn = func(_ context.Context, _ uuid.UUID, _ string) (*models.ProvisioningRequest, error) {
			return load()
		}
		repo.getByIDFn = func(_ context.Context, _ uuid.UUID) (*models.ProvisioningRequest, error) {
			return load()
		}
		return repo
	}

	t.Run("size comes from the cluster", func(t *testing.T) {
		cl := newClusterStub()
		svc := newService(approvedRepo(), cl)

		size, err := svc.DatabaseSize(context.Background(), student, id)
		require.NoError(t, err)
		assert.Equal(t, "8192 kB", size)
		assert.Equal(t, []string{"database_size"}, cl.calls)
	})

	t.Run("admins may inspect size within their scope", func(t *testing.T) {
		cl := newClusterStub()
		svc := newService(approvedRepo(), cl)

		_, err := svc.DatabaseSize(context.Background(), admin, id)
		require.NoError(t, err)
	})

	t.Run("list tables forwards the caller-supplied password", func(t *testing.T) {
		cl := newClusterStub()
		cl.tables = []string{"assignments", "students"}
		svc := newService(approvedRepo(), cl)

		tables, err := svc.ListTables(context.Background(), student, id, "their-password")
		require.NoError(t, err)
		assert.Equal(t, []string{"assignments", "students"}, tables)
	})
}

// TestListPendingCached verifies the pending queue is served from the cache
// within its TTL and refreshed as soon as the queue changes.
func TestListPendingCached(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.ProvisioningRequest{}))

	repo := repository.NewRequestRepository(db)
	svc := newService(repo, newClusterStub())
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, student, "cs200-db")
	require.NoError(t, err)

	pending, err := svc.ListPending(ctx, admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, mr.Exists(cache.PendingKey("eng")))

	// A row inserted behind the service's back stays invisible while the
	// cached snapshot is live, then appears once the TTL passes.
	require.NoError(t, db.Create(&models.ProvisioningRequest{
		RequesterID:   "student-2",
		RequesterName: "Vikram",
		CollegeID:     "eng",
		DatabaseName:  "cs201-db",
		DatabaseUser:  "cs201_db_user",
		Status:        models.RequestStatusPending,
	}).Error)

	pending, err = svc.ListPending(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	mr.FastForward(cache.PendingTTL + time.Second)
	pending, err = svc.ListPending(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	// Approval drops the cached queue so the admin never reviews a request
	// that was just handled.
	_, err = svc.Approve(ctx, admin, req.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.PendingKey("eng")))

	pending, err = svc.ListPending(ctx, admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "cs201-db", pending[0].DatabaseName)

	// The superuser queue is cached under its own key and invalidated too.
	super := models.Identity{ID: "root", Name: "Root", CollegeID: models.ScopeAll, IsAdmin: true}
	all, err := svc.ListPending(ctx, super)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.True(t, mr.Exists(cache.PendingKey(models.ScopeAll)))

	_, err = svc.CreateRequest(ctx, student, "cs202-db")
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.PendingKey(models.ScopeAll)))
}

// TestProvisioningLifecycle drives the state machine against the real
// repository on an in-memory database: request, approve, reveal once,
// rotate, delete.
func TestProvisioningLifecycle(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.ProvisioningRequest{}))

	repo := repository.NewRequestRepository(db)
	cl := newClusterStub()
	svc := newService(repo, cl)
	ctx := context.Background()

	// A student requests a database for their course project.
	req, err := svc.CreateRequest(ctx, student, "cs101-web")
	require.NoError(t, err)
	assert.Equal(t, "cs101_web_user", req.DatabaseUser)

	// The same name cannot be requested twice.
	_, err = svc.CreateRequest(ctx, models.Identity{ID: "student-2", CollegeID: "eng"}, "cs101-web")
	require.Error(t, err)
	assert.Equal(t, models.CodeConflict, err.(*models.AppError).Code)

	// It shows up in the admin's pending queue.
	pending, err := svc.ListPending(ctx, admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// Approval provisions the cluster and parks the secret.
	result, err := svc.Approve(ctx, admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs101-web", result.DatabaseName)
	assert.Equal(t, []string{"create_role", "create_database", "grant_privileges"}, cl.calls)

	// A second approval attempt finds nothing pending.
	_, err = svc.Approve(ctx, admin, req.ID)
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, err.(*models.AppError).Code)

	// The requester reveals the credentials exactly once.
	creds, err := svc.Reveal(ctx, student, req.ID)
	require.NoError(t, err)
	assert.Len(t, creds.Password, 16)

	_, err = svc.Reveal(ctx, student, req.ID)
	require.Error(t, err)
	assert.Equal(t, models.CodeAlreadyRevealed, err.(*models.AppError).Code)

	// Another student cannot see or touch the request.
	_, err = svc.Reveal(ctx, models.Identity{ID: "student-2", CollegeID: "eng"}, req.ID)
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, err.(*models.AppError).Code)

	// Rotation and teardown round out the lifecycle.
	require.NoError(t, svc.RotatePassword(ctx, student, req.ID, "new-password-1"))
	require.NoError(t, svc.DeleteProvisioned(ctx, student, req.ID))

	mine, err := svc.ListForRequester(ctx, student)
	require.NoError(t, err)
	assert.Empty(t, mine)
}
