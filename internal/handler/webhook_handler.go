package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"presale/internal/service"
	"presale/pkg/metrics"

	"github.com/gin-gonic/gin"
)

const (
	SignatureHeader = "X-Webhook-Signature"
	maxWebhookBody  = 64 << 10
)

// WebhookHandler accepts settlement confirmations for purchases.
type WebhookHandler struct {
	ledger *service.LedgerService
	secret string
}

func NewWebhookHandler(ledger *service.LedgerService, secret string) *WebhookHandler {
	return &WebhookHandler{ledger: ledger, secret: secret}
}

type settlementPayload struct {
	Wallet string `json:"wallet"`
	service.PurchaseInput
}

// Settlement handles POST /webhooks/settlement. The body is
// {"wallet", "id", "status", ...} signed with HMAC-SHA256 in
// X-Webhook-Signature when a secret is configured.
func (h *WebhookHandler) Settlement(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "invalid body")
		return
	}
	if h.secret != "" && !h.verifySignature(body, c.GetHeader(SignatureHeader)) {
		metrics.WebhookRejected.Inc()
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature", "code": "UNAUTHORIZED"})
		return
	}
	var payload settlementPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if _, err := h.ledger.SubmitPurchase(c.Request.Context(), payload.Wallet, payload.PurchaseInput); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	return hmac.Equal([]byte(signature), []byte(Sign(h.secret, body)))
}

// Sign returns the hex HMAC-SHA256 of body, as senders must compute it.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
