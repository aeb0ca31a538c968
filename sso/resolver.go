// Package sso resolves which identity-provider connection applies to an
// inbound request.
package sso

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/open-rails/tenantauth/config"
	oidckit "github.com/open-rails/tenantauth/oidc"
)

// Store looks up per-organization SSO connections. Absence is a normal
// negative result: implementations return (nil, nil) when no connection
// matches the id.
type Store interface {
	FindByID(ctx context.Context, id string) (*oidckit.Connection, error)
}

// Resolver picks the identity-provider connection for a request. A nil
// result means no SSO applies; it is not an error.
type Resolver struct {
	cfg   *config.Config
	store Store
	log   logrus.FieldLogger
}

// NewResolver builds a resolver for the given deployment configuration.
// store may be nil for self-hosted deployments.
func NewResolver(cfg *config.Config, store Store, log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{cfg: cfg, store: store, log: log}
}

// Resolve determines the connection for a request. connectionID is the value
// of the request's connection header, empty when absent.
//
// Self-hosted deployments use the static connection or none at all. Hosted
// requests carrying a connection header look the connection up by id; an
// unknown id logs a diagnostic and falls through to no SSO rather than
// failing the request. Hosted requests without a header use the hosted
// default.
func (r *Resolver) Resolve(ctx context.Context, connectionID string) (*oidckit.Connection, error) {
	if !r.cfg.Hosted() {
		return r.cfg.StaticConnection, nil
	}
	if connectionID != "" {
		if r.store == nil {
			r.log.WithField("connection_id", connectionID).Warn("sso: connection header present but no connection store configured")
			return nil, nil
		}
		conn, err := r.store.FindByID(ctx, connectionID)
		if err != nil {
			return nil, err
		}
		if conn == nil {
			r.log.WithField("connection_id", connectionID).Warn("sso: unknown connection id, falling through to no SSO")
			return nil, nil
		}
		return conn, nil
	}
	return r.cfg.HostedDefault, nil
}
