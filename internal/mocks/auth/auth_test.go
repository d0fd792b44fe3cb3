package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/openhire/jobboard-api/internal/domain/auth"
)

func TestStaticTokenVerifier(t *testing.T) {
	ctx := context.Background()

	verifier := NewStaticTokenVerifier().
		Add("hr-token", domainauth.Principal{ID: "hr-1", Role: domainauth.RoleHR, EmailVerified: true})

	t.Run("known token resolves", func(t *testing.T) {
		principal, err := verifier.Verify(ctx, "hr-token")
		require.NoError(t, err)
		assert.Equal(t, "hr-1", principal.ID)
		assert.Equal(t, domainauth.RoleHR, principal.Role)
	})

	t.Run("unknown token fails", func(t *testing.T) {
		_, err := verifier.Verify(ctx, "bogus")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("forced error wins", func(t *testing.T) {
		broken := NewStaticTokenVerifier().Add("hr-token", domainauth.Principal{ID: "hr-1"})
		broken.Err = assert.AnError
		_, err := broken.Verify(ctx, "hr-token")
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestClaimRoleMapper(t *testing.T) {
	mapper := ClaimRoleMapper{}

	assert.Equal(t, domainauth.RoleAdmin, mapper.Map("admin"))
	assert.Equal(t, domainauth.RoleHR, mapper.Map("hr"))
	assert.Equal(t, domainauth.RoleApplicant, mapper.Map("applicant"))
	assert.Equal(t, domainauth.RoleApplicant, mapper.Map(""))
	assert.Equal(t, domainauth.RoleApplicant, mapper.Map("superuser"))
}
