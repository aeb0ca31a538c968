// Package testing provides a mock identity provider for exercising the auth
// subsystem without a real one: an HTTP server exposing OIDC discovery and
// JWKS endpoints, plus RS256 and HS256 token minting.
package testing

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	oidckit "github.com/open-rails/tenantauth/oidc"
)

// Issuer is a mock OIDC provider. It serves
// /.well-known/openid-configuration and /.well-known/jwks.json from an
// httptest server and signs RS256 tokens that validate against the JWKS.
type Issuer struct {
	server   *httptest.Server
	key      *rsa.PrivateKey
	kid      string
	clientID string

	// JWKSFetches counts key-set requests, for asserting cache behavior.
	JWKSFetches int
	// DiscoveryFetches counts discovery-document requests.
	DiscoveryFetches int
}

// NewIssuer starts a mock provider. Call Close when done.
func NewIssuer() *Issuer {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic("testing: generate RSA key: " + err.Error())
	}
	iss := &Issuer{
		key:      key,
		kid:      "test-key-1",
		clientID: "test-client",
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", iss.handleDiscovery)
	mux.HandleFunc("/.well-known/jwks.json", iss.handleJWKS)
	iss.server = httptest.NewServer(mux)
	return iss
}

// Close shuts down the provider.
func (i *Issuer) Close() { i.server.Close() }

// URL returns the issuer (authority) URL.
func (i *Issuer) URL() string { return i.server.URL }

// ClientID returns the audience the issuer signs tokens for.
func (i *Issuer) ClientID() string { return i.clientID }

// JWKSURL returns the key-set endpoint.
func (i *Issuer) JWKSURL() string { return i.server.URL + "/.well-known/jwks.json" }

// Metadata returns the provider metadata as an inline document.
func (i *Issuer) Metadata() *oidckit.ProviderMetadata {
	return &oidckit.ProviderMetadata{
		Issuer:     i.URL(),
		JWKSURI:    i.JWKSURL(),
		Algorithms: []string{"RS256"},
	}
}

// Connection returns a connection pointing at this issuer, discovered over
// the network (no inline metadata).
func (i *Issuer) Connection(id string) *oidckit.Connection {
	return &oidckit.Connection{ID: id, Authority: i.URL(), ClientID: i.clientID}
}

// SignToken mints an RS256 token. Default claims (iss, aud, sub, exp, iat,
// email, email_verified) may be overridden or extended via overrides.
func (i *Issuer) SignToken(overrides map[string]any) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":            i.URL(),
		"aud":            i.clientID,
		"sub":            "google|123",
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
		"email":          "user@example.com",
		"email_verified": true,
	}
	for k, v := range overrides {
		if v == nil {
			delete(claims, k)
			continue
		}
		claims[k] = v
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = i.kid
	signed, err := token.SignedString(i.key)
	if err != nil {
		panic("testing: sign token: " + err.Error())
	}
	return signed
}

func (i *Issuer) handleDiscovery(w http.ResponseWriter, _ *http.Request) {
	i.DiscoveryFetches++
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"issuer":   i.URL(),
		"jwks_uri": i.JWKSURL(),
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (i *Issuer) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	i.JWKSFetches++
	pub := &i.key.PublicKey
	jwks := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"use": "sig",
			"alg": "RS256",
			"kid": i.kid,
			"n":   base64URLEncode(pub.N),
			"e":   base64URLEncode(big.NewInt(int64(pub.E))),
		}},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(jwks)
}

func base64URLEncode(i *big.Int) string {
	b := i.Bytes()
	for len(b) > 0 && b[0] == 0x00 {
		b = b[1:]
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// SignLocalToken mints an HS256 token the way the application server issues
// them for self-hosted deployments.
func SignLocalToken(secret, issuer, audience string, overrides map[string]any) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":            issuer,
		"aud":            audience,
		"sub":            "user-1",
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
		"email":          "user@example.com",
		"email_verified": true,
	}
	for k, v := range overrides {
		if v == nil {
			delete(claims, k)
			continue
		}
		claims[k] = v
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		panic("testing: sign local token: " + err.Error())
	}
	return signed
}
