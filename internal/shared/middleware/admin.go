package middleware

import (
	"github.com/gin-gonic/gin"

	"printshop-backend/internal/shared/response"
)

const RoleAdmin = "admin"

// AdminMiddleware checks if user has admin role. It must run after
// AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role := c.GetString(ContextRole); role != RoleAdmin {
			response.Forbidden(c, "Access denied: admin role required")
			c.Abort()
			return
		}

		c.Next()
	}
}
