package authgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/tenantauth/core"
	"github.com/open-rails/tenantauth/permissions"
)

const securityContextKey = "auth.security_context"

// FromContext returns the request's security context, if the auth middleware
// ran.
func FromContext(c *gin.Context) (*core.SecurityContext, bool) {
	v, ok := c.Get(securityContextKey)
	if !ok {
		return nil, false
	}
	sc, ok := v.(*core.SecurityContext)
	return sc, ok
}

// UserView is a handler-facing snapshot of the caller.
type UserView struct {
	UserID      string `json:"user_id,omitempty"`
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	Admin       bool   `json:"admin"`
	LoginMethod string `json:"login_method"`
	OrgID       string `json:"org_id,omitempty"`
	Role        string `json:"role,omitempty"`
}

// CurrentUser returns a snapshot of the caller. The boolean is false for
// anonymous contexts (token verified, but no matching application user).
func CurrentUser(c *gin.Context) (UserView, bool) {
	sc, ok := FromContext(c)
	if !ok {
		return UserView{}, false
	}
	view := UserView{
		Email:       sc.Email,
		Name:        sc.Name,
		LoginMethod: sc.LoginMethod,
	}
	if sc.Organization != nil {
		view.OrgID = sc.Organization.ID.String()
		view.Role = string(sc.Role)
	}
	if sc.User == nil {
		return view, false
	}
	view.UserID = sc.User.ID.String()
	view.Admin = sc.User.Admin
	return view, true
}

// RequirePermission gates a route on one permission from the derived set.
func RequirePermission(p permissions.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := FromContext(c)
		if !ok || !sc.Permissions.Has(p) {
			Reject(c, http.StatusForbidden, "Insufficient permissions")
			return
		}
		c.Next()
	}
}
