package config

import (
	"errors"
	"testing"
)

func clearAuthEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AUTH_MODE", "AUTH_JWT_SECRET", "AUTH_LOCAL_ISSUER", "AUTH_LOCAL_AUDIENCE",
		"AUTH_SSO_CONNECTION", "AUTH_HOSTED_DEFAULT",
		"AUTH_CONNECTION_HEADER", "AUTH_ORGANIZATION_HEADER",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != ModeSelfHosted {
		t.Fatalf("expected self-hosted default, got %q", cfg.Mode)
	}
	if cfg.LocalIssuer != "tenantauth" || cfg.LocalAudience != "tenantauth" {
		t.Fatalf("unexpected local issuer/audience %q/%q", cfg.LocalIssuer, cfg.LocalAudience)
	}
	if cfg.ConnectionHeader != DefaultConnectionHeader || cfg.OrganizationHeader != DefaultOrganizationHeader {
		t.Fatalf("unexpected headers %q/%q", cfg.ConnectionHeader, cfg.OrganizationHeader)
	}
	if cfg.Hosted() || cfg.DynamicVerification() {
		t.Fatal("plain self-hosted must use local verification")
	}
}

func TestFromEnvRejectsUnknownMode(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("AUTH_MODE", "saas")
	if _, err := FromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestFromEnvRequiresSecretForLocalVerification(t *testing.T) {
	clearAuthEnv(t)
	if _, err := FromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig without AUTH_JWT_SECRET, got %v", err)
	}
}

func TestFromEnvHostedRequiresDefaultConnection(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("AUTH_MODE", "hosted")
	if _, err := FromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig without AUTH_HOSTED_DEFAULT, got %v", err)
	}
}

func TestFromEnvHosted(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("AUTH_MODE", "hosted")
	t.Setenv("AUTH_HOSTED_DEFAULT", `{"id":"default","authority":"https://idp.example.com","client_id":"cid"}`)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Hosted() || !cfg.DynamicVerification() {
		t.Fatal("hosted mode must use dynamic verification")
	}
	if cfg.HostedDefault == nil || cfg.HostedDefault.Authority != "https://idp.example.com" {
		t.Fatalf("unexpected hosted default %+v", cfg.HostedDefault)
	}
}

func TestFromEnvStaticConnectionEnablesSSO(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("AUTH_SSO_CONNECTION", `{"id":"static","authority":"https://idp.example.com","client_id":"cid"}`)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Hosted() {
		t.Fatal("static connection must not imply hosted mode")
	}
	if !cfg.DynamicVerification() {
		t.Fatal("static connection must enable dynamic verification")
	}
}

func TestFromEnvRejectsMalformedConnection(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("AUTH_SSO_CONNECTION", "{not json")
	if _, err := FromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for malformed JSON, got %v", err)
	}
}
