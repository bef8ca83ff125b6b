// Package seed provides helpers to create demo data for the portal database.
// These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"nidhi/internal/models"
	"nidhi/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options controls how much demo data is generated.
type Options struct {
	// Requests is the number of provisioning requests to create.
	Requests int
	// DryRun logs what would be created without writing to the database.
	DryRun bool
}

var colleges = []string{"eng", "sci", "arts", "mgmt"}

var courseWords = []string{
	"cs101", "cs202", "ee210", "me305", "bio110", "stats201",
	"web", "ml", "iot", "robotics", "compilers", "networks",
}

// Run populates the request store with plausible provisioning requests in a
// mix of lifecycle states.
func Run(db *gorm.DB, opts Options) error {
	gofakeit.Seed(time.Now().UnixNano())
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	n := opts.Requests
	if n <= 0 {
		n = 20
	}

	requests := make([]*models.ProvisioningRequest, 0, n)
	seen := map[string]struct{}{}
	for len(requests) < n {
		name := demoDatabaseName(r)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		requests = append(requests, demoRequest(r, name))
	}

	if opts.DryRun {
		for _, req := range requests {
			log.Printf("[dry-run] would create request %s (%s) for %s", req.DatabaseName, req.Status, req.RequesterName)
		}
		return nil
	}

	for _, req := range requests {
		if err := db.Create(req).Error; err != nil {
			return fmt.Errorf("seeding request %s: %w", req.DatabaseName, err)
		}
	}

	log.Printf("Seeded %d provisioning requests", len(requests))
	return nil
}

func demoDatabaseName(r *rand.Rand) string {
	base := courseWords[r.Intn(len(courseWords))]
	suffix := strings.ToLower(gofakeit.LetterN(4))
	return fmt.Sprintf("%s-%s", base, suffix)
}

func demoRequest(r *rand.Rand, name string) *models.ProvisioningRequest {
	req := &models.ProvisioningRequest{
		RequesterID:   fmt.Sprintf("student-%d", gofakeit.Number(1000, 9999)),
		RequesterName: gofakeit.Name(),
		CollegeID:     colleges[r.Intn(len(colleges))],
		DatabaseName:  name,
		DatabaseUser:  validation.DeriveDatabaseUser(name),
		Status:        models.RequestStatusPending,
		CreatedAt:     time.Now().Add(-time.Duration(r.Intn(30*24)) * time.Hour),
	}

	// Roughly half the demo data has moved past review.
	switch r.Intn(10) {
	case 0, 1, 2, 3:
		approver := fmt.Sprintf("admin-%d", gofakeit.Number(1, 9))
		req.Status = models.RequestStatusApproved
		req.ApprovedBy = &approver
		if r.Intn(2) == 0 {
			secret := gofakeit.Password(true, true, true, false, false, 16)
			req.OneTimeSecret = &secret
		}
	case 4:
		req.Status = models.RequestStatusRejected
	case 5:
		req.Status = models.RequestStatusError
	}

	return req
}
