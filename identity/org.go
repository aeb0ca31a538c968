package identity

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/open-rails/tenantauth/permissions"
)

// Organization is a tenant: members plus the login-method policy its SSO
// configuration allows. An empty AllowedLoginMethods list allows any method.
type Organization struct {
	bun.BaseModel `bun:"table:app.organizations,alias:o"`

	ID                  uuid.UUID `bun:"id,pk,type:uuid"`
	Name                string    `bun:"name,notnull"`
	AllowedLoginMethods []string  `bun:"allowed_login_methods,array"`
	Members             []*Member `bun:"rel:has-many,join:id=org_id"`
}

// Member links a user to an organization with a role.
type Member struct {
	bun.BaseModel `bun:"table:app.organization_members,alias:m"`

	OrgID  uuid.UUID `bun:"org_id,pk,type:uuid"`
	UserID uuid.UUID `bun:"user_id,pk,type:uuid"`
	Role   string    `bun:"role,notnull"`
}

// MemberRole returns the role of a user inside the organization, if they are
// a member.
func (o *Organization) MemberRole(userID uuid.UUID) (permissions.Role, bool) {
	for _, m := range o.Members {
		if m.UserID == userID {
			return permissions.ParseRole(m.Role), true
		}
	}
	return "", false
}

// AllowsLoginMethod reports whether the organization's policy permits the
// given login method.
func (o *Organization) AllowsLoginMethod(method string) bool {
	if len(o.AllowedLoginMethods) == 0 {
		return true
	}
	for _, m := range o.AllowedLoginMethods {
		if m == method {
			return true
		}
	}
	return false
}

// OrgStore loads organizations with their membership lists.
type OrgStore struct {
	db *bun.DB
}

// NewOrgStore creates an organization store.
func NewOrgStore(db *bun.DB) *OrgStore {
	return &OrgStore{db: db}
}

// FindByID returns the organization with its members, or nil when absent.
func (s *OrgStore) FindByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	org := new(Organization)
	err := s.db.NewSelect().
		Model(org).
		Relation("Members").
		Where("o.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return org, nil
}
