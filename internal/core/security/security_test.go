package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordercore/internal/core/apperror"
	appctx "ordercore/internal/core/context"
)

func TestCELGuardDefaultPolicy(t *testing.T) {
	g, err := NewCELGuard("")
	require.NoError(t, err)
	assert.Equal(t, DefaultOverridePolicy, g.Expression())

	tests := []struct {
		name string
		req  OverrideRequest
		want bool
	}{
		{"no grants", OverrideRequest{UserID: "u1"}, false},
		{"override permission", OverrideRequest{UserID: "u1", Permissions: []string{"documents.override"}}, true},
		{"admin role", OverrideRequest{UserID: "u1", Roles: []string{"admin"}}, true},
		{"unrelated grants", OverrideRequest{UserID: "u1", Roles: []string{"clerk"}, Permissions: []string{"documents.write"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.AllowOverride(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCELGuardCustomPolicyUsesTransition(t *testing.T) {
	g, err := NewCELGuard(`to == "admin_mode" && "accountant" in roles && kind == "Invoice"`)
	require.NoError(t, err)

	ok, err := g.AllowOverride(context.Background(), OverrideRequest{
		Roles: []string{"accountant"}, Kind: "Invoice", From: "invoiced", To: "admin_mode",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.AllowOverride(context.Background(), OverrideRequest{
		Roles: []string{"accountant"}, Kind: "Invoice", From: "invoiced", To: "any_mode",
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewCELGuardRejectsBadPolicies(t *testing.T) {
	_, err := NewCELGuard(`roles +`)
	assert.Error(t, err)

	_, err = NewCELGuard(`user_id`)
	assert.ErrorContains(t, err, "bool")
}

func TestPermissionGuard(t *testing.T) {
	ok, err := PermissionGuard{}.AllowOverride(context.Background(), OverrideRequest{Roles: []string{"admin"}})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = PermissionGuard{}.AllowOverride(context.Background(), OverrideRequest{Roles: []string{"viewer"}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccessScope(t *testing.T) {
	anon := NewAccessScope(context.Background())
	assert.True(t, apperror.HasCode(anon.RequirePermission(PermissionDocumentsRead), apperror.CodeUnauthorized))

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:      "u1",
		Permissions: []string{string(PermissionDocumentsRead)},
	})
	scope := NewAccessScope(ctx)
	assert.NoError(t, scope.RequirePermission(PermissionDocumentsRead))
	assert.True(t, apperror.HasCode(scope.RequirePermission(PermissionPaymentsWrite), apperror.CodeForbidden))

	admin := NewAccessScope(appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "root", IsAdmin: true}))
	assert.NoError(t, admin.RequirePermission(PermissionOverride))
}
