package middleware

import (
	"net/http"

	"github.com/01moynul/taptosell-orders/internal/models"
	"github.com/gin-gonic/gin"
)

// AdminMiddleware must run after AuthMiddleware. It lets administrators
// through and rejects everybody else with 403.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get the role from AuthMiddleware
		if _, exists := c.Get(KeyUserID); !exists {
			abortWith(c, http.StatusUnauthorized, "unauthorized", "User ID not found in context (AuthMiddleware must run first)")
			return
		}

		// 2. Check permission
		if c.GetString(KeyUserRole) != models.RoleAdmin {
			abortWith(c, http.StatusForbidden, "forbidden", "Access denied: Admin role required")
			return
		}

		c.Next()
	}
}

// IsAdmin reports whether the authenticated caller is an administrator.
func IsAdmin(c *gin.Context) bool {
	return c.GetString(KeyUserRole) == models.RoleAdmin
}

// CallerID returns the user ID stored by AuthMiddleware.
func CallerID(c *gin.Context) int64 {
	return c.GetInt64(KeyUserID)
}
