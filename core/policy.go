package core

import (
	"context"
	"fmt"

	"github.com/open-rails/tenantauth/identity"
)

// LoginPolicy decides whether a login method is acceptable for an
// organization. A non-nil error rejects the request with 403 and the error's
// message.
type LoginPolicy interface {
	Validate(ctx context.Context, method string, org *identity.Organization) error
}

// AllowedMethodsPolicy enforces the organization's allowed-login-methods
// list. An empty list permits any method.
type AllowedMethodsPolicy struct{}

// Validate implements LoginPolicy.
func (AllowedMethodsPolicy) Validate(_ context.Context, method string, org *identity.Organization) error {
	if !org.AllowsLoginMethod(method) {
		return fmt.Errorf("Login method %s is not allowed for this organization", method)
	}
	return nil
}
