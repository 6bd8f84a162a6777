package middleware

import (
	"net/http"

	"presale/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired checks that the authenticated session has the ADMIN role.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if r, ok := role.(string); !exists || !ok || r != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required", "code": "FORBIDDEN"})
			return
		}
		c.Next()
	}
}
