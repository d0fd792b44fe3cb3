package config

// OIDCConfig contains OIDC token verification configuration.
// Bearer tokens presented to the API are verified against the issuer's
// published signing keys; no login flow is hosted by this service.
type OIDCConfig struct {
	ClientID string `env:"CLIENT_ID" envDefault:"jobboard"`

	// DiscoveryURL is the issuer URL or its full discovery document URL.
	// Required when the HTTP service is enabled.
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// OIDC verifier configuration.
	OIDC OIDCConfig `envPrefix:"OIDC_"`
}
