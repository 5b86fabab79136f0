// Package security provides authorization and access control.
package security

import (
	"context"
	"fmt"
	"slices"

	"ordercore/internal/core/apperror"
	appctx "ordercore/internal/core/context"
)

// Permission defines available permissions in the system.
type Permission string

const (
	PermissionDocumentsRead  Permission = "documents.read"
	PermissionDocumentsWrite Permission = "documents.write"
	PermissionPaymentsWrite  Permission = "payments.write"

	// PermissionOverride allows entering AdminMode and AnyMode.
	PermissionOverride Permission = "documents.override"
)

// Role defines a set of permissions.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAccountant Role = "accountant"
	RoleClerk      Role = "clerk"
	RoleViewer     Role = "viewer"
)

// AccessScope is the authorization view of the current request.
type AccessScope struct {
	// UserID is the authenticated user
	UserID string

	// IsAdmin bypasses permission checks
	IsAdmin bool

	// Roles and Permissions as carried by the token
	Roles       []string
	Permissions []string
}

// NewAccessScope creates AccessScope from context.
func NewAccessScope(ctx context.Context) *AccessScope {
	user := appctx.GetUser(ctx)
	if user == nil {
		return &AccessScope{}
	}

	return &AccessScope{
		UserID:      user.UserID,
		IsAdmin:     user.IsAdmin,
		Roles:       user.Roles,
		Permissions: user.Permissions,
	}
}

// HasPermission checks if user has permission.
func (s *AccessScope) HasPermission(perm Permission) bool {
	if s.IsAdmin {
		return true
	}
	return slices.Contains(s.Permissions, string(perm))
}

// RequirePermission returns error if permission is missing.
func (s *AccessScope) RequirePermission(perm Permission) error {
	if s.UserID == "" {
		return apperror.NewUnauthorized("authentication required")
	}
	if !s.HasPermission(perm) {
		return apperror.NewForbidden(
			fmt.Sprintf("permission %s required", perm),
		).WithDetail("permission", string(perm))
	}
	return nil
}
