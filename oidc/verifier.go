package oidckit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ErrToken indicates a bearer token failed verification (signature, issuer,
// audience, or time checks). The request is unauthenticated.
var ErrToken = errors.New("oidc: invalid token")

// JWKSRefreshBucket is the rate-limit bucket name for forced JWKS refreshes.
const JWKSRefreshBucket = "jwks_refresh"

// JWKSRefreshLimit caps forced JWKS fetches per URL per minute.
const JWKSRefreshLimit = 5

// RateLimiter gates forced JWKS refreshes. Both ratelimit/memory and
// ratelimit/redis satisfy it.
type RateLimiter interface {
	AllowNamed(bucket, key string) (bool, error)
}

// IDTokenClaims captures the identity fields authorization derivation consumes.
type IDTokenClaims struct {
	Subject       string
	Email         string
	EmailVerified *bool
	Name          string
}

// Verifier validates bearer tokens against one provider configuration: a JWKS
// URI with remote key caching, an expected audience and issuer, and an
// algorithm allow-list. Instances are built once per connection configuration
// and held for the process lifetime by the VerifierCache.
type Verifier struct {
	issuer   string
	audience string
	jwksURI  string
	algs     map[string]struct{}
	keys     *jwk.Cache
	limiter  RateLimiter
}

// VerifierOpt configures a Verifier.
type VerifierOpt func(*Verifier)

// WithRefreshLimiter replaces the refresh rate limiter.
func WithRefreshLimiter(rl RateLimiter) VerifierOpt {
	return func(v *Verifier) { v.limiter = rl }
}

// NewVerifier constructs a verifier bound to the given provider metadata and
// audience. Remote keys are cached and refreshed in the background; a
// verification failure may additionally force one refresh, limited to
// JWKSRefreshLimit fetches per minute per JWKS URL.
func NewVerifier(ctx context.Context, meta *ProviderMetadata, audience string, opts ...VerifierOpt) (*Verifier, error) {
	if meta == nil || meta.JWKSURI == "" {
		return nil, fmt.Errorf("%w: provider metadata missing jwks_uri", ErrConfig)
	}
	if meta.Issuer == "" {
		return nil, fmt.Errorf("%w: provider metadata missing issuer", ErrConfig)
	}
	if len(meta.Algorithms) == 0 {
		return nil, fmt.Errorf("%w: provider metadata missing signing algorithms", ErrConfig)
	}
	if audience == "" {
		return nil, fmt.Errorf("%w: audience (client id) is empty", ErrConfig)
	}
	algs := make(map[string]struct{}, len(meta.Algorithms))
	for _, a := range meta.Algorithms {
		algs[a] = struct{}{}
	}
	cache := jwk.NewCache(ctx)
	if err := cache.Register(meta.JWKSURI, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("%w: register jwks %s: %v", ErrConfig, meta.JWKSURI, err)
	}
	v := &Verifier{
		issuer:   meta.Issuer,
		audience: audience,
		jwksURI:  meta.JWKSURI,
		algs:     algs,
		keys:     cache,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify checks signature, issuer, audience, and validity window, then
// extracts identity claims.
func (v *Verifier) Verify(ctx context.Context, raw string) (*IDTokenClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrToken)
	}
	msg, err := jws.ParseString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrToken, err)
	}
	sigs := msg.Signatures()
	if len(sigs) == 0 {
		return nil, fmt.Errorf("%w: unsigned token", ErrToken)
	}
	alg := sigs[0].ProtectedHeaders().Algorithm().String()
	if _, ok := v.algs[alg]; !ok {
		return nil, fmt.Errorf("%w: disallowed algorithm %s", ErrToken, alg)
	}

	set, err := v.keys.Get(ctx, v.jwksURI)
	if err != nil {
		return nil, fmt.Errorf("%w: jwks fetch: %v", ErrDiscovery, err)
	}
	token, err := v.parse(ctx, raw, set)
	if err != nil {
		// The provider may have rotated keys since the cached fetch. Force
		// one refresh and retry, within the per-URL budget.
		if fresh, ok := v.refresh(ctx); ok {
			token, err = v.parse(ctx, raw, fresh)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrToken, err)
		}
	}
	return claimsFromToken(token), nil
}

func (v *Verifier) parse(ctx context.Context, raw string, set jwk.Set) (jwt.Token, error) {
	return jwt.ParseString(
		raw,
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithContext(ctx),
	)
}

func (v *Verifier) refresh(ctx context.Context) (jwk.Set, bool) {
	if v.limiter != nil {
		allowed, err := v.limiter.AllowNamed(JWKSRefreshBucket, v.jwksURI)
		if err != nil || !allowed {
			return nil, false
		}
	}
	set, err := v.keys.Refresh(ctx, v.jwksURI)
	if err != nil {
		return nil, false
	}
	return set, true
}

func claimsFromToken(token jwt.Token) *IDTokenClaims {
	claims := &IDTokenClaims{Subject: token.Subject()}
	if raw, ok := token.Get("email"); ok {
		if email, ok := raw.(string); ok {
			claims.Email = email
		}
	}
	if raw, ok := token.Get("email_verified"); ok {
		switch val := raw.(type) {
		case bool:
			claims.EmailVerified = &val
		case string:
			if strings.EqualFold(val, "true") {
				b := true
				claims.EmailVerified = &b
			} else if strings.EqualFold(val, "false") {
				b := false
				claims.EmailVerified = &b
			}
		}
	}
	if raw, ok := token.Get("name"); ok {
		if name, ok := raw.(string); ok {
			claims.Name = name
		}
	}
	return claims
}
