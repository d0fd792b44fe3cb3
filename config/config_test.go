package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:  "single service - http",
			input: "http",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP: true,
			},
		},
		{
			name:  "single service - expirer",
			input: "expirer",
			expected: map[ServiceMode]bool{
				ServiceModeExpirer: true,
			},
		},
		{
			name:  "multiple services",
			input: "http,expirer",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:    true,
				ServiceModeExpirer: true,
			},
		},
		{
			name:  "services with spaces",
			input: " http , expirer ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:    true,
				ServiceModeExpirer: true,
			},
		},
		{
			name:  "duplicate services",
			input: "http,http,expirer",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:    true,
				ServiceModeExpirer: true,
			},
		},
		{
			name:        "empty string",
			input:       "",
			expectError: true,
		},
		{
			name:        "only commas",
			input:       ",,,",
			expectError: true,
		},
		{
			name:        "invalid service name",
			input:       "http,scheduler",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServices(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("ParseServices(%q) expected error, got none", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseServices(%q) unexpected error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseServices(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAppConfigDefaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Services != "http" {
		t.Errorf("Services = %q, want %q", cfg.Services, "http")
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.HTTP.Addr, ":8080")
	}
	if cfg.Postgres.Port != 5432 {
		t.Errorf("Postgres.Port = %d, want 5432", cfg.Postgres.Port)
	}
	if !cfg.Postgres.RunMigrationsOnStart {
		t.Error("Postgres.RunMigrationsOnStart = false, want true")
	}
	if cfg.Expirer.Interval != time.Minute {
		t.Errorf("Expirer.Interval = %v, want 1m", cfg.Expirer.Interval)
	}
	if cfg.Cache.AggregateTTL != 5*time.Minute {
		t.Errorf("Cache.AggregateTTL = %v, want 5m", cfg.Cache.AggregateTTL)
	}
}

func TestAppConfigFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("REDIS_URI", "redis.internal:6379")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SERVICES", "http,expirer")
	t.Setenv("EXPIRER_INTERVAL", "30s")
	t.Setenv("OIDC_CLIENT_ID", "portal")
	t.Setenv("OIDC_DISCOVERY_URL", "https://issuer.example.com")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Postgres.Host != "db.internal" {
		t.Errorf("Postgres.Host = %q", cfg.Postgres.Host)
	}
	if cfg.Postgres.Port != 5433 {
		t.Errorf("Postgres.Port = %d", cfg.Postgres.Port)
	}
	if cfg.Redis.URI != "redis.internal:6379" {
		t.Errorf("Redis.URI = %q", cfg.Redis.URI)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Expirer.Interval != 30*time.Second {
		t.Errorf("Expirer.Interval = %v", cfg.Expirer.Interval)
	}
	if cfg.Auth.OIDC.ClientID != "portal" {
		t.Errorf("Auth.OIDC.ClientID = %q", cfg.Auth.OIDC.ClientID)
	}
	if cfg.Auth.OIDC.DiscoveryURL != "https://issuer.example.com" {
		t.Errorf("Auth.OIDC.DiscoveryURL = %q", cfg.Auth.OIDC.DiscoveryURL)
	}

	if !cfg.IsHTTPServerEnabled() {
		t.Error("IsHTTPServerEnabled() = false, want true")
	}
	if !cfg.IsExpirerEnabled() {
		t.Error("IsExpirerEnabled() = false, want true")
	}
}

func TestExpirerConfigSanitize(t *testing.T) {
	cfg := ExpirerConfig{Interval: time.Second}
	cfg.Sanitize()
	if cfg.Interval != 10*time.Second {
		t.Errorf("Interval = %v, want 10s floor", cfg.Interval)
	}
}

func TestDetectDevMode(t *testing.T) {
	t.Setenv("NODE_ENV", "development")
	cfg := AppConfig{Services: "http"}
	cfg.Sanitize()
	if !cfg.IsDev {
		t.Error("IsDev = false, want true when NODE_ENV=development")
	}
}
