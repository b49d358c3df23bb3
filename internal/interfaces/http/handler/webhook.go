package handler

import (
	"io"
	"net/http"

	paymentapp "github.com/bridgecart/backend/internal/application/payment"
	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the gateway's HMAC-SHA256 hex digest of the raw body.
const SignatureHeader = "X-Webhook-Signature"

// WebhookHandler receives payment gateway notifications. These endpoints are
// called by the gateway itself and are not authenticated; authenticity comes
// from the signature over the raw payload.
type WebhookHandler struct {
	BaseHandler
	callbackService *paymentapp.CallbackService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(callbackService *paymentapp.CallbackService) *WebhookHandler {
	return &WebhookHandler{
		callbackService: callbackService,
	}
}

// HandlePaymentWebhook godoc
// @Summary      Handle payment gateway webhook
// @Description  Receive and process a payment status notification from the gateway
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Webhook-Signature header string true "HMAC-SHA256 signature of the body"
// @Success      200 {object} SuccessResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /webhooks/payments [post]
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	signature := c.GetHeader(SignatureHeader)

	if err := h.callbackService.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
