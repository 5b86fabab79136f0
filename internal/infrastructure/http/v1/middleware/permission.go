package middleware

import (
	"github.com/gin-gonic/gin"

	"ordercore/internal/core/security"
)

// RequirePermission middleware checks if user has required permission.
// Admins automatically have all permissions.
func RequirePermission(perm security.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := security.NewAccessScope(c.Request.Context())
		if err := scope.RequirePermission(perm); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
