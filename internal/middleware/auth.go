package middleware

import (
	"net/http"
	"strings"

	"presale/config"
	"presale/internal/auth"
	apperrors "presale/pkg/errors"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the admin session token and sets role and claims
// in the context.
func AuthRequired(cfg *config.AdminConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "invalid authorization format")
			return
		}
		claims, err := auth.ParseAdminToken(cfg, parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}
		c.Set("role", claims.Role)
		c.Set("claims", claims)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": apperrors.ErrCodeUnauthorized})
}
