// Package models defines the persisted data model for the provisioning portal.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus defines lifecycle states for database provisioning requests.
type RequestStatus string

const (
	// RequestStatusPending indicates the request is awaiting admin review and
	// has never touched the cluster.
	RequestStatusPending RequestStatus = "pending"
	// RequestStatusApproved indicates the database and role exist on the cluster.
	RequestStatusApproved RequestStatus = "approved"
	// RequestStatusRejected indicates the request was denied without cluster changes.
	RequestStatusRejected RequestStatus = "rejected"
	// RequestStatusError indicates a cluster operation partially failed; the
	// record may not reflect cluster reality and needs manual reconciliation.
	RequestStatusError RequestStatus = "error"
)

// ScopeAll is the distinguished superuser tenant scope that bypasses
// college-based partitioning in admin queries.
const ScopeAll = "*"

// ProvisioningRequest is a student or faculty request for a provisioned
// PostgreSQL database, tracked from submission through approval to teardown.
type ProvisioningRequest struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID   string        `gorm:"size:150;not null;index" json:"requester_id"`
	RequesterName string        `gorm:"size:150;not null" json:"requester_name"`
	CollegeID     string        `gorm:"size:100;index" json:"college_id"`
	DatabaseName  string        `gorm:"size:63;not null;uniqueIndex" json:"db_name"`
	DatabaseUser  string        `gorm:"size:63;not null;uniqueIndex" json:"db_user"`
	Status        RequestStatus `gorm:"type:varchar(10);not null;default:'pending';index" json:"status"`
	ApprovedBy    *string       `gorm:"size:150" json:"approved_by"`
	// OneTimeSecret is populated on approval and cleared permanently on the
	// first reveal. It is never exposed through list/detail serialization.
	OneTimeSecret *string   `gorm:"size:128" json:"-"`
	Version       uint      `gorm:"not null;default:0" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BeforeCreate assigns the primary key so inserts work the same on every
// driver, sqlite test databases included.
func (r *ProvisioningRequest) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// SecretAvailable reports whether the one-time secret is still unrevealed.
// Serialized so clients can show/hide the reveal action without ever
// receiving the secret itself.
func (r *ProvisioningRequest) SecretAvailable() bool {
	return r.OneTimeSecret != nil && *r.OneTimeSecret != ""
}
