package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"

	domainauth "github.com/openhire/jobboard-api/internal/domain/auth"
	"github.com/openhire/jobboard-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.TokenVerifier = (*StaticTokenVerifier)(nil)
	_ ports.RoleMapper    = (*ClaimRoleMapper)(nil)
)

// ErrNotFound is returned by mocks when an entity is not present.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}

// StaticTokenVerifier resolves bearer tokens from a fixed table.
type StaticTokenVerifier struct {
	Principals map[string]domainauth.Principal
	VerifyFunc func(ctx context.Context, rawToken string) (domainauth.Principal, error)
	Err        error
}

// NewStaticTokenVerifier creates a verifier with an empty principal table.
func NewStaticTokenVerifier() *StaticTokenVerifier {
	return &StaticTokenVerifier{Principals: map[string]domainauth.Principal{}}
}

// Add registers a token and returns the verifier for chaining.
func (v *StaticTokenVerifier) Add(token string, principal domainauth.Principal) *StaticTokenVerifier {
	if v.Principals == nil {
		v.Principals = map[string]domainauth.Principal{}
	}
	v.Principals[token] = principal
	return v
}

func (v *StaticTokenVerifier) Verify(ctx context.Context, rawToken string) (domainauth.Principal, error) {
	if v.VerifyFunc != nil {
		return v.VerifyFunc(ctx, rawToken)
	}
	if v.Err != nil {
		return domainauth.Principal{}, v.Err
	}
	principal, ok := v.Principals[rawToken]
	if !ok {
		return domainauth.Principal{}, ErrNotFound
	}
	return principal, nil
}

// ClaimRoleMapper maps a role claim string to an application role, falling
// back to applicant for anything unknown.
type ClaimRoleMapper struct{}

func (ClaimRoleMapper) Map(claim string) domainauth.Role {
	role := domainauth.Role(claim)
	if role.Valid() {
		return role
	}
	return domainauth.RoleApplicant
}
