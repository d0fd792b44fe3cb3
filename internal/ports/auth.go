package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/http.

import (
	"context"

	domainauth "github.com/openhire/jobboard-api/internal/domain/auth"
)

// TokenVerifier authenticates a raw bearer token against the identity
// provider and returns the caller's principal.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (domainauth.Principal, error)
}

// RoleMapper maps an identity-provider role claim to an application role.
type RoleMapper interface {
	Map(claim string) domainauth.Role
}
