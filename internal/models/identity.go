package models

// Identity is the authenticated caller as established by the API layer. The
// provisioning core trusts these fields as-is; verifying the upstream role
// signal (JWT or gateway headers) is entirely the API layer's job.
type Identity struct {
	ID        string
	Name      string
	CollegeID string
	IsAdmin   bool
}

// Scope returns the tenant scope this identity may administer. Admins without
// a college act in the single-tenant (legacy) scope; the superuser scope is
// granted explicitly via ScopeAll.
func (i Identity) Scope() string {
	return i.CollegeID
}
