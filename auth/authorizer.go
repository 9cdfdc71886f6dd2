package auth

import (
	"context"
	"fmt"
)

// ActionRenew is the action checked before a renewal batch runs.
const ActionRenew = "renewal.run"

// Authorizer decides whether an identity may perform an action.
type Authorizer interface {
	// Authorize returns nil when permitted, otherwise an error matching
	// ErrForbidden.
	Authorize(ctx context.Context, id *Identity, action string) error
}

// AuthzError describes a denied action.
type AuthzError struct {
	Subject string
	Action  string
	Reason  string
}

// Error returns the error message.
func (e *AuthzError) Error() string {
	return fmt.Sprintf("authorization denied: subject=%q action=%q reason=%q", e.Subject, e.Action, e.Reason)
}

// Is matches ErrForbidden.
func (e *AuthzError) Is(target error) bool {
	return target == ErrForbidden
}

// RoleAuthorizer requires a role per action. Actions with no entry are
// permitted.
type RoleAuthorizer struct {
	required map[string]string
}

// NewRoleAuthorizer maps action to required role.
func NewRoleAuthorizer(required map[string]string) *RoleAuthorizer {
	r := &RoleAuthorizer{required: make(map[string]string, len(required))}
	for action, role := range required {
		if role != "" {
			r.required[action] = role
		}
	}
	return r
}

// Authorize checks that id holds the role required for action.
func (r *RoleAuthorizer) Authorize(_ context.Context, id *Identity, action string) error {
	role, ok := r.required[action]
	if !ok {
		return nil
	}
	if id == nil {
		return &AuthzError{Action: action, Reason: "no identity"}
	}
	if !id.HasRole(role) {
		return &AuthzError{Subject: id.Principal, Action: action, Reason: fmt.Sprintf("missing role %q", role)}
	}
	return nil
}

var _ Authorizer = (*RoleAuthorizer)(nil)
