package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/campus-hire/internal/dtos"
	"github.com/justsurfingit/campus-hire/internal/services"
)

const maxWebhookBytes = 1 << 20

type PaymentHandler struct {
	Payments *services.PaymentService
}

func NewPaymentHandler(p *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{Payments: p}
}

func (h *PaymentHandler) Checkout(c *gin.Context) {
	var req dtos.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	url, err := h.Payments.CreateCheckout(currentProfile(c), req.Plan)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *PaymentHandler) Subscription(c *gin.Context) {
	overview, err := h.Payments.Overview(currentProfile(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// Webhook is POST /api/webhooks/stripe. It is unauthenticated; the signature is the check.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read body"})
		return
	}
	if len(payload) > maxWebhookBytes {
		// A truncated body cannot verify.
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Payload too large"})
		return
	}
	if err := h.Payments.HandleWebhook(payload, c.GetHeader("Stripe-Signature")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
