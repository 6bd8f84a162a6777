package handler

import (
	"net/http"

	"presale/internal/service"

	"github.com/gin-gonic/gin"
)

type PresaleHandler struct {
	presale *service.PresaleService
}

func NewPresaleHandler(presale *service.PresaleService) *PresaleHandler {
	return &PresaleHandler{presale: presale}
}

// Overview handles GET /presale.
func (h *PresaleHandler) Overview(c *gin.Context) {
	out, err := h.presale.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
