package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
	"github.com/noah-isme/content-console/pkg/response"
)

// PermissionChecker resolves whether a role grants a permission.
type PermissionChecker interface {
	HasPermission(ctx context.Context, role models.UserRole, perm string) (bool, error)
}

// RequirePermission allows the request only when the caller's role grants perm.
// Lookup failures are reported as-is rather than being treated as a denial.
func RequirePermission(checker PermissionChecker, perm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		allowed, err := checker.HasPermission(c.Request.Context(), claims.Role, perm)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if !allowed {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "missing permission "+perm))
			c.Abort()
			return
		}
		c.Next()
	}
}
