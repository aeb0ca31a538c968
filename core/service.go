package core

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/tenantauth/audit"
	"github.com/open-rails/tenantauth/identity"
	"github.com/open-rails/tenantauth/permissions"
)

// UserStore resolves and mutates application users.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*identity.User, error)
	MarkVerified(ctx context.Context, userID uuid.UUID) error
}

// OrgStore resolves organizations with membership lists.
type OrgStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.Organization, error)
}

// Service performs authorization derivation after token verification.
type Service struct {
	users  UserStore
	orgs   OrgStore
	policy LoginPolicy
	writer audit.Writer
	hosted bool
	log    logrus.FieldLogger
}

// ServiceOpt configures a Service.
type ServiceOpt func(*Service)

// WithLoginPolicy replaces the login-method policy.
func WithLoginPolicy(p LoginPolicy) ServiceOpt {
	return func(s *Service) { s.policy = p }
}

// WithAuditWriter sets the audit sink.
func WithAuditWriter(w audit.Writer) ServiceOpt {
	return func(s *Service) { s.writer = w }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log logrus.FieldLogger) ServiceOpt {
	return func(s *Service) { s.log = log }
}

// NewService builds the derivation service. hosted selects the multi-tenant
// behaviors: provider-tag login methods and the email-verification gate.
func NewService(users UserStore, orgs OrgStore, hosted bool, opts ...ServiceOpt) *Service {
	s := &Service{
		users:  users,
		orgs:   orgs,
		policy: AllowedMethodsPolicy{},
		writer: audit.Discard,
		hosted: hosted,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Derive builds the request's security context from verified claims. The
// steps run strictly in order and short-circuit: the most restrictive
// permission set is installed before any lookup that could fail, so every
// early return is fail-closed.
//
// A non-nil Rejection rejects the request with its status and message. A
// non-nil error is an internal failure (or ErrClaims for a malformed token).
func (s *Service) Derive(ctx context.Context, claims *TokenClaims, orgHeader string) (*SecurityContext, *Rejection, error) {
	if claims == nil || claims.Email == "" {
		return nil, nil, fmt.Errorf("%w: missing email claim", ErrClaims)
	}

	sc := &SecurityContext{
		Email:       claims.Email,
		Name:        claims.Name,
		LoginMethod: LoginMethod(claims.Subject, s.hosted),
		Permissions: permissions.DefaultSet(),
		Audit: func(context.Context, audit.Event) error {
			return ErrNoUser
		},
	}

	user, err := s.users.FindByEmail(ctx, claims.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("core: resolve user: %w", err)
	}
	if user == nil {
		// Anonymous: no application user matched. Downstream handlers
		// decide whether that is acceptable for the route.
		return sc, nil, nil
	}
	sc.User = user

	if claims.EmailVerified && !user.Verified {
		if err := s.users.MarkVerified(ctx, user.ID); err != nil {
			return nil, nil, fmt.Errorf("core: mark user verified: %w", err)
		}
		user.Verified = true
	}
	if s.hosted && !user.Verified {
		return nil, rejectVerifyEmail, nil
	}

	if orgHeader != "" {
		rejection, err := s.resolveOrganization(ctx, sc, orgHeader)
		if err != nil {
			return nil, nil, err
		}
		if rejection != nil {
			return nil, rejection, nil
		}
	}

	sc.Audit = s.auditCapability(sc)
	return sc, nil, nil
}

func (s *Service) resolveOrganization(ctx context.Context, sc *SecurityContext, orgHeader string) (*Rejection, error) {
	orgID, err := uuid.Parse(orgHeader)
	if err != nil {
		return rejectOrgNotFound, nil
	}
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("core: resolve organization: %w", err)
	}
	if org == nil {
		return rejectOrgNotFound, nil
	}

	user := sc.User
	memberRole, isMember := org.MemberRole(user.ID)
	if !user.Admin && !isMember {
		return rejectNotMember, nil
	}
	if err := s.policy.Validate(ctx, sc.LoginMethod, org); err != nil {
		return reject(http.StatusForbidden, err.Error()), nil
	}

	role := memberRole
	if user.Admin {
		role = permissions.RoleAdmin
	}
	sc.Organization = org
	sc.Role = role
	sc.Permissions = permissions.ForRole(role)
	return nil, nil
}

// auditCapability binds a writer capability to the resolved identity. Events
// are enriched with the user, organization, a fresh id, and a timestamp, then
// handed to the audit writer. Write failures are logged, never surfaced:
// auditing is fire-and-forget from the request's perspective.
func (s *Service) auditCapability(sc *SecurityContext) AuditFunc {
	return func(ctx context.Context, e audit.Event) error {
		if sc.User == nil {
			return ErrNoUser
		}
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		e.UserID = sc.User.ID
		e.UserEmail = sc.User.Email
		if sc.Organization != nil {
			id := sc.Organization.ID
			e.OrgID = &id
		}
		if e.OccurredAt.IsZero() {
			e.OccurredAt = time.Now().UTC()
		}
		if err := s.writer.Write(ctx, e); err != nil {
			s.log.WithError(err).WithField("action", e.Action).Warn("core: audit write failed")
		}
		return nil
	}
}
