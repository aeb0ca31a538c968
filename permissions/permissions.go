// Package permissions maps organization roles onto the permission set a
// request operates with. The zero/default set grants nothing; handlers only
// gain capabilities after authorization derivation replaces it.
package permissions

// Role is an organization-level role.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Permission names a single capability a route handler may require.
type Permission string

const (
	PermOrgRead       Permission = "org:read"
	PermOrgWrite      Permission = "org:write"
	PermMembersManage Permission = "members:manage"
	PermSSOManage     Permission = "sso:manage"
	PermAuditRead     Permission = "audit:read"
)

// All lists every known permission, in a stable order.
var All = []Permission{PermOrgRead, PermOrgWrite, PermMembersManage, PermSSOManage, PermAuditRead}

// Set maps permission name to whether it is granted.
type Set map[Permission]bool

// DefaultSet returns the least-privileged set: every permission present, none granted.
func DefaultSet() Set {
	s := make(Set, len(All))
	for _, p := range All {
		s[p] = false
	}
	return s
}

// ForRole returns the permission set granted by a role. Unknown roles get the
// default (empty) grant.
func ForRole(r Role) Set {
	s := DefaultSet()
	switch r {
	case RoleAdmin:
		for _, p := range All {
			s[p] = true
		}
	case RoleEditor:
		s[PermOrgRead] = true
		s[PermOrgWrite] = true
	case RoleViewer:
		s[PermOrgRead] = true
	}
	return s
}

// Has reports whether the set grants a permission.
func (s Set) Has(p Permission) bool { return s[p] }

// ParseRole normalizes a stored role string. Unrecognized values map to
// RoleViewer so a corrupt membership row can never escalate.
func ParseRole(raw string) Role {
	switch Role(raw) {
	case RoleAdmin:
		return RoleAdmin
	case RoleEditor:
		return RoleEditor
	case RoleViewer:
		return RoleViewer
	default:
		return RoleViewer
	}
}
