package handler

import (
	"presale/internal/middleware"
	apperrors "presale/pkg/errors"
	"presale/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError writes err as {"error", "code"} with the matching status.
// Causes of server-side failures are logged, never returned.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= 500 {
		logger.Error("Request error", "request_id", middleware.GetRequestID(c), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": apperrors.PublicMessage(err),
		"code":  apperrors.PublicCode(err),
	})
}

// badRequest reports a body or query that could not be parsed.
func badRequest(c *gin.Context, msg string) {
	respondError(c, apperrors.InvalidInput(msg))
}
