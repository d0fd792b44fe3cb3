package oidc

// Package oidc verifies bearer tokens issued by the identity provider and
// maps their claims onto application principals.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/openhire/jobboard-api/internal/domain/auth"
	"github.com/openhire/jobboard-api/internal/ports"
)

// Verifier implements ports.TokenVerifier against an OIDC provider.
type Verifier struct {
	verifier *gooidc.IDTokenVerifier
	mapper   ports.RoleMapper
}

// VerifierConfig holds configuration for the OIDC token verifier.
type VerifierConfig struct {
	ClientID     string
	DiscoveryURL string
	RoleMapper   ports.RoleMapper // Optional, defaults to the role-claim mapper
	HTTPClient   *http.Client     // Optional, defaults to a 30s-timeout client
}

// NewVerifier creates a new Verifier. It performs a single discovery fetch
// against the provider.
func NewVerifier(ctx context.Context, config VerifierConfig) (*Verifier, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	mapper := config.RoleMapper
	if mapper == nil {
		mapper = claimRoleMapper{}
	}

	// go-oidc expects the bare issuer, not the discovery document URL
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	issuer = strings.TrimSuffix(issuer, ".well-known/openid-configuration")
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	return &Verifier{
		verifier: provider.Verifier(&gooidc.Config{ClientID: config.ClientID}),
		mapper:   mapper,
	}, nil
}

// principalClaims is the subset of token claims the application cares about.
type principalClaims struct {
	Subject       string `json:"sub"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

// Verify validates the raw bearer token (signature, issuer, audience, expiry)
// and maps its claims to a principal. An unknown or absent role claim
// degrades to applicant rather than failing verification.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (domainauth.Principal, error) {
	if rawToken == "" {
		return domainauth.Principal{}, errors.New("token is required")
	}

	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return domainauth.Principal{}, fmt.Errorf("verify token: %w", err)
	}

	var claims principalClaims
	if claimsErr := token.Claims(&claims); claimsErr != nil {
		return domainauth.Principal{}, fmt.Errorf("parse token claims: %w", claimsErr)
	}
	if claims.Subject == "" {
		return domainauth.Principal{}, errors.New("token has no subject")
	}

	return domainauth.Principal{
		ID:            claims.Subject,
		Role:          v.mapper.Map(claims.Role),
		EmailVerified: claims.EmailVerified,
	}, nil
}

// claimRoleMapper maps the provider role claim directly onto application
// roles, defaulting to applicant.
type claimRoleMapper struct{}

func (claimRoleMapper) Map(claim string) domainauth.Role {
	role := domainauth.Role(claim)
	if role.Valid() {
		return role
	}
	return domainauth.RoleApplicant
}
