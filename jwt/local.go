// Package jwtkit verifies locally issued bearer tokens for self-hosted
// deployments: HS256 with a pre-shared secret and fixed issuer/audience.
// Token issuance lives with the application server, not here.
package jwtkit

import (
	"context"
	"errors"
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"

	oidckit "github.com/open-rails/tenantauth/oidc"
)

// ErrConfig indicates the verifier cannot be constructed from the given
// configuration.
var ErrConfig = errors.New("jwt: invalid configuration")

// ErrToken indicates the bearer token failed verification.
var ErrToken = errors.New("jwt: invalid token")

// LocalVerifier validates HS256 tokens signed with a shared secret.
type LocalVerifier struct {
	secret   []byte
	issuer   string
	audience string
	parser   *jwt.Parser
}

// NewLocalVerifier fails fast when the shared secret is unconfigured, so a
// misconfigured self-hosted deployment refuses to start rather than refusing
// every request.
func NewLocalVerifier(secret, issuer, audience string) (*LocalVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: shared secret is empty", ErrConfig)
	}
	return &LocalVerifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
		),
	}, nil
}

// Verify checks the token and extracts identity claims. Self-hosted tokens
// carry email, email_verified, and name the same way federated ID tokens do.
func (v *LocalVerifier) Verify(_ context.Context, raw string) (*oidckit.IDTokenClaims, error) {
	token, err := v.parser.Parse(raw, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrToken, err)
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrToken)
	}
	claims := &oidckit.IDTokenClaims{}
	if sub, err := mapClaims.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if verified, ok := mapClaims["email_verified"].(bool); ok {
		claims.EmailVerified = &verified
	}
	if name, ok := mapClaims["name"].(string); ok {
		claims.Name = name
	}
	return claims, nil
}
