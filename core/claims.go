// Package core derives the per-request security context from verified token
// claims: user resolution, email-verification gating, organization membership
// and login-method policy, role-to-permission mapping, and the audit
// capability.
package core

import (
	"errors"
	"strings"
)

// ErrClaims indicates the verified token is missing required identity claims.
// The request is treated as unauthenticated.
var ErrClaims = errors.New("core: incomplete token claims")

// ErrNoUser indicates an operation that requires a resolved user ran in an
// anonymous request context.
var ErrNoUser = errors.New("core: no authenticated user")

// TokenClaims is the identity extracted from a verified bearer token.
type TokenClaims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// LoginMethod derives how the caller signed in. Hosted subjects are prefixed
// with a provider tag ("google|123" -> "google"); a subject without the
// separator yields "unknown", which no organization policy lists, so it fails
// closed. Self-hosted callers are always "local".
func LoginMethod(subject string, hosted bool) string {
	if !hosted {
		return "local"
	}
	if method, _, found := strings.Cut(subject, "|"); found && method != "" {
		return method
	}
	return "unknown"
}
