package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/01moynul/taptosell-orders/internal/auth"
	"github.com/01moynul/taptosell-orders/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Context keys set by AuthMiddleware.
const (
	KeyUserID   = "userID"
	KeyUserRole = "userRole"
)

// UserLookup resolves the caller's account. *store.Store and *memory.Store
// both satisfy it.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

func abortWith(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": kind, "message": message})
}

// AuthMiddleware is the "security guard" for authenticated routes. It accepts
// a Bearer token, resolves the user behind its subject and stores the caller
// in both the gin context and the request context.
func AuthMiddleware(secret []byte, users UserLookup, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWith(c, http.StatusUnauthorized, "unauthorized", "Authorization header required")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWith(c, http.StatusUnauthorized, "unauthorized", "Invalid token format (must be Bearer)")
			return
		}

		// 2. --- Validate Token ---
		userID, err := auth.ValidateToken(secret, parts[1])
		if err != nil {
			abortWith(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		// 3. --- Resolve the account and its role ---
		user, err := users.GetUser(c.Request.Context(), userID)
		if errors.Is(err, models.ErrRecordNotFound) {
			abortWith(c, http.StatusUnauthorized, "unauthorized", "Invalid user")
			return
		}
		if err != nil {
			logger.Error().Err(err).Int64("user_id", userID).Msg("user lookup failed")
			abortWith(c, http.StatusInternalServerError, "internal", "Database error checking user")
			return
		}

		// 4. --- Success ---
		c.Set(KeyUserID, user.ID)
		c.Set(KeyUserRole, user.Role)
		c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), auth.Identity{UserID: user.ID, Role: user.Role}))
		c.Next()
	}
}
