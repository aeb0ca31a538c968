package core

import (
	"context"
	"net/http"

	"github.com/open-rails/tenantauth/audit"
	"github.com/open-rails/tenantauth/identity"
	"github.com/open-rails/tenantauth/permissions"
)

// AuditFunc records an audit event on behalf of the request's resolved user.
// The capability fills in event identity, organization, id, and timestamp;
// callers provide action and metadata.
type AuditFunc func(ctx context.Context, e audit.Event) error

// SecurityContext is the per-request authorization state. It is created
// fresh for every request and never shared across requests.
type SecurityContext struct {
	// User is nil when no application user matched the token's email; the
	// request then proceeds anonymously with default permissions and route
	// handlers decide whether that is acceptable.
	User *identity.User

	Email       string
	Name        string
	LoginMethod string

	// Organization is set only when the request carried an organization
	// header that resolved and passed membership and policy checks.
	Organization *identity.Organization
	Role         permissions.Role
	Permissions  permissions.Set

	Audit AuditFunc
}

// Authenticated reports whether an application user was resolved.
func (sc *SecurityContext) Authenticated() bool { return sc.User != nil }

// Admin reports whether the resolved user is an instance admin.
func (sc *SecurityContext) Admin() bool { return sc.User != nil && sc.User.Admin }

// Rejection is a terminal authorization failure, translated to a transport
// response at the boundary only.
type Rejection struct {
	Status  int
	Message string
}

func reject(status int, message string) *Rejection {
	return &Rejection{Status: status, Message: message}
}

// Rejection messages and statuses surfaced to clients.
var (
	rejectVerifyEmail = reject(http.StatusNotAcceptable, "Email must be verified")
	rejectOrgNotFound = reject(http.StatusNotFound, "Organization not found")
	rejectNotMember   = reject(http.StatusForbidden, "You do not have access to that organization")
)
