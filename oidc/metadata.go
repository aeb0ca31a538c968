// Package oidckit implements the OpenID Connect side of request
// authentication: provider metadata discovery, process-wide metadata and
// verifier caches, and JWKS-backed bearer token verification.
package oidckit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrConfig indicates required static configuration is missing or incomplete.
// It is fatal for the connection it concerns and is never retried.
var ErrConfig = errors.New("oidc: invalid configuration")

// ErrDiscovery indicates a network or protocol failure while reaching the
// identity provider. It fails the current request only; the next request
// retries discovery naturally since failures are not cached.
var ErrDiscovery = errors.New("oidc: discovery failed")

// ProviderMetadata is the subset of the OIDC discovery document the verifier
// needs: where the keys live and what the provider signs with.
type ProviderMetadata struct {
	Issuer     string   `json:"issuer"`
	JWKSURI    string   `json:"jwks_uri"`
	Algorithms []string `json:"id_token_signing_alg_values_supported"`
}

// Discover fetches provider metadata from the authority's well-known endpoint.
func Discover(ctx context.Context, authority string) (*ProviderMetadata, error) {
	trimmed := strings.TrimRight(authority, "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: authority is empty", ErrConfig)
	}
	discoveryURL := trimmed + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiscovery, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiscovery, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned %s", ErrDiscovery, discoveryURL, resp.Status)
	}
	var doc ProviderMetadata
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiscovery, err)
	}
	discoveredIssuer := strings.TrimRight(doc.Issuer, "/")
	if discoveredIssuer != "" && discoveredIssuer != trimmed {
		return nil, fmt.Errorf("%w: issuer mismatch: %s", ErrDiscovery, doc.Issuer)
	}
	if doc.JWKSURI == "" {
		return nil, fmt.Errorf("%w: document missing jwks_uri", ErrDiscovery)
	}
	return &doc, nil
}
