package auth

// Package auth contains domain-level types for authentication.
// It is pure and free of framework/adapter concerns.

// Role represents an application's authorization role.
// Keep string form for easy persistence and claims mapping.
// Valid values are defined as constants below.
type Role string

const (
	RoleApplicant Role = "applicant"
	RoleHR        Role = "hr"
	RoleAdmin     Role = "admin"
)

// Valid returns true if the Role is one of the closed set.
func (r Role) Valid() bool {
	return r == RoleApplicant || r == RoleHR || r == RoleAdmin
}

// CanPostJobs returns true for roles allowed to create and manage job postings.
func (r Role) CanPostJobs() bool {
	return r == RoleHR || r == RoleAdmin
}

// Principal represents the authenticated caller attached to a request.
// Adapters map provider-specific claims into this shape.
type Principal struct {
	ID            string
	Role          Role
	EmailVerified bool
}
