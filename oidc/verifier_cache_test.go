package oidckit_test

import (
	"context"
	"errors"
	"testing"

	oidckit "github.com/open-rails/tenantauth/oidc"
	authtest "github.com/open-rails/tenantauth/testing"
)

func TestVerifierCacheReturnsIdenticalInstance(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cache := oidckit.NewVerifierCache(ctx, oidckit.NewMetadataCache())

	conn := issuer.Connection("tenant-1")
	first, err := cache.Get(ctx, conn)
	if err != nil {
		t.Fatal(err)
	}
	// A separate value serializing to the same configuration hits the cache.
	clone := *conn
	second, err := cache.Get(ctx, &clone)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatal("expected the identical verifier instance for equal configurations")
	}
	if issuer.DiscoveryFetches != 1 {
		t.Fatalf("expected one discovery, got %d", issuer.DiscoveryFetches)
	}
}

func TestVerifierCacheDistinguishesConfigurations(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cache := oidckit.NewVerifierCache(ctx, oidckit.NewMetadataCache())

	a, err := cache.Get(ctx, issuer.Connection("tenant-a"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := cache.Get(ctx, issuer.Connection("tenant-b"))
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("distinct configurations must not share a verifier")
	}
}

func TestVerifierCacheRejectsIncompleteMetadata(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cache := oidckit.NewVerifierCache(ctx, oidckit.NewMetadataCache())

	conn := &oidckit.Connection{
		ID:       "bad",
		ClientID: "cid",
		Metadata: &oidckit.ProviderMetadata{Issuer: "https://idp", JWKSURI: "https://idp/jwks"},
	}
	if _, err := cache.Get(ctx, conn); !errors.Is(err, oidckit.ErrConfig) {
		t.Fatalf("expected ErrConfig for metadata without algorithms, got %v", err)
	}
}

func TestVerifierWorksThroughCacheEndToEnd(t *testing.T) {
	issuer := authtest.NewIssuer()
	defer issuer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cache := oidckit.NewVerifierCache(ctx, oidckit.NewMetadataCache())

	v, err := cache.Get(ctx, issuer.Connection("tenant-1"))
	if err != nil {
		t.Fatal(err)
	}
	claims, err := v.Verify(ctx, issuer.SignToken(map[string]any{"email": "e2e@x.com"}))
	if err != nil {
		t.Fatal(err)
	}
	if claims.Email != "e2e@x.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}
