// Package config loads the deployment configuration for the auth subsystem
// from environment variables. The deployment mode is resolved once here and
// consumed as a tagged variant; request handling never re-reads the
// environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	oidckit "github.com/open-rails/tenantauth/oidc"
)

// ErrConfig indicates required configuration is missing or malformed.
var ErrConfig = errors.New("config: invalid configuration")

// Mode selects between the two deployment variants.
type Mode string

const (
	// ModeSelfHosted verifies locally issued tokens with a pre-shared
	// secret, unless a static SSO connection is configured.
	ModeSelfHosted Mode = "self-hosted"
	// ModeHosted is the multi-tenant deployment: per-organization SSO
	// connections with a hosted default.
	ModeHosted Mode = "hosted"
)

// Default header names consumed from inbound requests.
const (
	DefaultConnectionHeader   = "X-SSO-Connection"
	DefaultOrganizationHeader = "X-Organization-Id"
)

// Config is the subsystem's static configuration.
type Config struct {
	Mode Mode

	// Local verification (self-hosted without SSO).
	JWTSecret     string
	LocalIssuer   string
	LocalAudience string

	// Static SSO connection for self-hosted deployments; nil disables SSO.
	StaticConnection *oidckit.Connection

	// Default connection for hosted requests carrying no connection header.
	HostedDefault *oidckit.Connection

	ConnectionHeader   string
	OrganizationHeader string
}

// Hosted reports whether the deployment is the multi-tenant variant.
func (c *Config) Hosted() bool { return c.Mode == ModeHosted }

// DynamicVerification reports whether the OpenID verification path applies:
// hosted deployments always, self-hosted only with a static connection.
func (c *Config) DynamicVerification() bool {
	return c.Hosted() || c.StaticConnection != nil
}

// FromEnv builds a Config from the process environment.
//
//	AUTH_MODE            "hosted" or "self-hosted" (default self-hosted)
//	AUTH_JWT_SECRET      pre-shared secret for local verification
//	AUTH_LOCAL_ISSUER    issuer for local tokens (default "tenantauth")
//	AUTH_LOCAL_AUDIENCE  audience for local tokens (default "tenantauth")
//	AUTH_SSO_CONNECTION  JSON-encoded static connection (self-hosted SSO)
//	AUTH_HOSTED_DEFAULT  JSON-encoded hosted default connection
//	AUTH_CONNECTION_HEADER / AUTH_ORGANIZATION_HEADER  header overrides
func FromEnv() (*Config, error) {
	cfg := &Config{
		Mode:               ModeSelfHosted,
		JWTSecret:          strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")),
		LocalIssuer:        envOr("AUTH_LOCAL_ISSUER", "tenantauth"),
		LocalAudience:      envOr("AUTH_LOCAL_AUDIENCE", "tenantauth"),
		ConnectionHeader:   envOr("AUTH_CONNECTION_HEADER", DefaultConnectionHeader),
		OrganizationHeader: envOr("AUTH_ORGANIZATION_HEADER", DefaultOrganizationHeader),
	}
	switch mode := strings.ToLower(strings.TrimSpace(os.Getenv("AUTH_MODE"))); mode {
	case "", string(ModeSelfHosted):
		cfg.Mode = ModeSelfHosted
	case string(ModeHosted):
		cfg.Mode = ModeHosted
	default:
		return nil, fmt.Errorf("%w: unknown AUTH_MODE %q", ErrConfig, mode)
	}
	var err error
	if cfg.StaticConnection, err = connFromEnv("AUTH_SSO_CONNECTION"); err != nil {
		return nil, err
	}
	if cfg.HostedDefault, err = connFromEnv("AUTH_HOSTED_DEFAULT"); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements. Local verification requires a
// shared secret; the hosted variant requires a default connection.
func (c *Config) Validate() error {
	if !c.DynamicVerification() && c.JWTSecret == "" {
		return fmt.Errorf("%w: AUTH_JWT_SECRET is required for local verification", ErrConfig)
	}
	if c.Hosted() && c.HostedDefault == nil {
		return fmt.Errorf("%w: hosted mode requires AUTH_HOSTED_DEFAULT", ErrConfig)
	}
	return nil
}

func connFromEnv(key string) (*oidckit.Connection, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil, nil
	}
	var conn oidckit.Connection
	if err := json.Unmarshal([]byte(raw), &conn); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfig, key, err)
	}
	return &conn, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
