// Package authgin exposes the auth subsystem as gin middleware: bearer token
// verification (local or per-connection OpenID) followed by authorization
// derivation, with the resulting security context installed on the request.
package authgin

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/tenantauth/config"
	"github.com/open-rails/tenantauth/core"
	jwtkit "github.com/open-rails/tenantauth/jwt"
	oidckit "github.com/open-rails/tenantauth/oidc"
	"github.com/open-rails/tenantauth/sso"
)

// Authenticator is the verification dispatcher. The strategy is fixed at
// construction from the deployment configuration: hosted deployments and
// self-hosted deployments with a static SSO connection take the dynamic
// OpenID path; everything else verifies locally issued tokens.
type Authenticator struct {
	cfg       *config.Config
	resolver  *sso.Resolver
	verifiers *oidckit.VerifierCache
	local     *jwtkit.LocalVerifier
	service   *core.Service
	log       logrus.FieldLogger
}

// AuthenticatorOpt configures an Authenticator.
type AuthenticatorOpt func(*Authenticator)

// WithLogger sets the diagnostic logger.
func WithLogger(log logrus.FieldLogger) AuthenticatorOpt {
	return func(a *Authenticator) { a.log = log }
}

// NewAuthenticator builds the dispatcher. On the local path the shared-secret
// verifier is constructed here, so a missing secret fails at setup rather
// than on the first request.
func NewAuthenticator(cfg *config.Config, resolver *sso.Resolver, verifiers *oidckit.VerifierCache, service *core.Service, opts ...AuthenticatorOpt) (*Authenticator, error) {
	a := &Authenticator{
		cfg:       cfg,
		resolver:  resolver,
		verifiers: verifiers,
		service:   service,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if !cfg.DynamicVerification() {
		local, err := jwtkit.NewLocalVerifier(cfg.JWTSecret, cfg.LocalIssuer, cfg.LocalAudience)
		if err != nil {
			return nil, err
		}
		a.local = local
	}
	return a, nil
}

// Middleware verifies the request's bearer token and derives its security
// context. Any failure on the verification path fails authentication; it is
// never silently passed through.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			Unauthorized(c)
			return
		}
		ctx := c.Request.Context()

		claims, err := a.verify(ctx, c, raw)
		if err != nil {
			a.log.WithError(err).Debug("authgin: token verification failed")
			Unauthorized(c)
			return
		}

		tc := &core.TokenClaims{
			Subject:       claims.Subject,
			Email:         claims.Email,
			EmailVerified: claims.EmailVerified != nil && *claims.EmailVerified,
			Name:          claims.Name,
		}
		sc, rejection, err := a.service.Derive(ctx, tc, c.GetHeader(a.cfg.OrganizationHeader))
		if err != nil {
			if errors.Is(err, core.ErrClaims) {
				Unauthorized(c)
				return
			}
			a.log.WithError(err).Error("authgin: authorization derivation failed")
			Reject(c, http.StatusInternalServerError, "Internal error")
			return
		}
		if rejection != nil {
			Reject(c, rejection.Status, rejection.Message)
			return
		}

		c.Set(securityContextKey, sc)
		c.Next()
	}
}

// verify runs the strategy chosen at construction. The dynamic path resolves
// the connection per request, since the target connection may vary per
// request in hosted deployments.
func (a *Authenticator) verify(ctx context.Context, c *gin.Context, raw string) (*oidckit.IDTokenClaims, error) {
	if a.local != nil {
		return a.local.Verify(ctx, raw)
	}
	conn, err := a.resolver.Resolve(ctx, c.GetHeader(a.cfg.ConnectionHeader))
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, errors.New("authgin: no identity-provider connection resolved")
	}
	verifier, err := a.verifiers.Get(ctx, conn)
	if err != nil {
		return nil, err
	}
	return verifier.Verify(ctx, raw)
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
