package oidckit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	oidckit "github.com/open-rails/tenantauth/oidc"
	authtest "github.com/open-rails/tenantauth/testing"
)

func TestNewVerifierConfigErrors(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name     string
		meta     *oidckit.ProviderMetadata
		audience string
	}{
		{"nil metadata", nil, "cid"},
		{"missing jwks", &oidckit.ProviderMetadata{Issuer: "i", Algorithms: []string{"RS256"}}, "cid"},
		{"missing issuer", &oidckit.ProviderMetadata{JWKSURI: "u", Algorithms: []string{"RS256"}}, "cid"},
		{"missing algs", &oidckit.ProviderMetadata{Issuer: "i", JWKSURI: "u"}, "cid"},
		{"missing audience", &oidckit.ProviderMetadata{Issuer: "i", JWKSURI: "u", Algorithms: []string{"RS256"}}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := oidckit.NewVerifier(ctx, tc.meta, tc.audience); !errors.Is(err, oidckit.ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestVerifierAcceptsValidToken(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	v, err := oidckit.NewVerifier(ctx, issuer.Metadata(), issuer.ClientID())
	if err != nil {
		t.Fatal(err)
	}

	claims, err := v.Verify(ctx, issuer.SignToken(map[string]any{"sub": "google|42", "email": "a@x.com", "name": "Ada"}))
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "google|42" || claims.Email != "a@x.com" || claims.Name != "Ada" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.EmailVerified == nil || !*claims.EmailVerified {
		t.Fatal("expected email_verified=true")
	}
}

func TestVerifierCachesRemoteKeys(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	v, err := oidckit.NewVerifier(ctx, issuer.Metadata(), issuer.ClientID())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := v.Verify(ctx, issuer.SignToken(nil)); err != nil {
			t.Fatal(err)
		}
	}
	if issuer.JWKSFetches != 1 {
		t.Fatalf("expected one JWKS fetch across verifications, got %d", issuer.JWKSFetches)
	}
}

func TestVerifierRejectsWrongAudience(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	v, err := oidckit.NewVerifier(ctx, issuer.Metadata(), issuer.ClientID())
	if err != nil {
		t.Fatal(err)
	}
	_, err = v.Verify(ctx, issuer.SignToken(map[string]any{"aud": "someone-else"}))
	if !errors.Is(err, oidckit.ErrToken) {
		t.Fatalf("expected ErrToken, got %v", err)
	}
}

func TestVerifierRejectsExpiredToken(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	v, err := oidckit.NewVerifier(ctx, issuer.Metadata(), issuer.ClientID())
	if err != nil {
		t.Fatal(err)
	}
	expired := issuer.SignToken(map[string]any{"exp": time.Now().Add(-time.Hour).Unix()})
	if _, err := v.Verify(ctx, expired); !errors.Is(err, oidckit.ErrToken) {
		t.Fatalf("expected ErrToken, got %v", err)
	}
}

func TestVerifierRejectsDisallowedAlgorithm(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	v, err := oidckit.NewVerifier(ctx, issuer.Metadata(), issuer.ClientID())
	if err != nil {
		t.Fatal(err)
	}
	// HS256 token, even if otherwise plausible, is not in the provider's
	// advertised algorithm set.
	hs := authtest.SignLocalToken("secret", issuer.URL(), issuer.ClientID(), nil)
	if _, err := v.Verify(ctx, hs); !errors.Is(err, oidckit.ErrToken) {
		t.Fatalf("expected ErrToken, got %v", err)
	}
}
