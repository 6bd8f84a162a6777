package handler

import (
	"net/http"

	"presale/internal/domain"
	"presale/internal/service"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	ledger         *service.LedgerService
	settlementOnly bool
}

// NewPurchaseHandler builds the public purchase endpoints. With
// settlementOnly set, clients may only submit Pending purchases.
func NewPurchaseHandler(ledger *service.LedgerService, settlementOnly bool) *PurchaseHandler {
	return &PurchaseHandler{ledger: ledger, settlementOnly: settlementOnly}
}

type submitPurchaseRequest struct {
	Wallet   string                `json:"wallet"`
	Purchase service.PurchaseInput `json:"purchase"`
}

// Submit handles POST /purchases.
func (h *PurchaseHandler) Submit(c *gin.Context) {
	var req submitPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if h.settlementOnly && req.Purchase.Status != domain.StatusPending {
		badRequest(c, "status must be Pending; settlement is confirmed by webhook")
		return
	}
	res, err := h.ledger.SubmitPurchase(c.Request.Context(), req.Wallet, req.Purchase)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetUser handles GET /users/:wallet. Unknown wallets read as empty.
func (h *PurchaseHandler) GetUser(c *gin.Context) {
	data, err := h.ledger.UserData(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}
