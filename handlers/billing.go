package handlers

import (
	"net/http"

	"meramarket/middleware"
	"meramarket/models"
	"meramarket/services/billing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BillingHandler sells contact passes, listing fees and the
// interested-contacts add-on.
type BillingHandler struct {
	billing *billing.Service
}

func NewBillingHandler(bill *billing.Service) *BillingHandler {
	return &BillingHandler{billing: bill}
}

func (h *BillingHandler) PricingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.billing.Pricing())
}

func (h *BillingHandler) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.billing.Status(middleware.CurrentUser(c)))
}

// CheckoutHandler opens a payment with the active gateway. The client
// completes it with CompleteHandler once the gateway has confirmed.
func (h *BillingHandler) CheckoutHandler(c *gin.Context) {
	var req billing.Checkout
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.billing.Checkout(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		respondError(c, "Checkout failed", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *BillingHandler) CompleteHandler(c *gin.Context) {
	var proof models.PaymentProof
	if err := c.ShouldBindJSON(&proof); err != nil {
		badRequest(c, err)
		return
	}
	receipt, err := h.billing.Complete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), proof)
	if err != nil {
		respondError(c, "Payment failed", err)
		return
	}
	getLogger(c).Info("Checkout completed",
		zap.String("paymentId", receipt.Payment.ID),
		zap.String("status", string(receipt.Payment.Status)))
	c.JSON(http.StatusOK, receipt)
}

// PurchaseHandler checks out and completes in one call. It suits gateways
// that settle without a client round trip, such as the mock gateway.
func (h *BillingHandler) PurchaseHandler(c *gin.Context) {
	var req billing.Checkout
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	receipt, err := h.billing.Purchase(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		respondError(c, "Purchase failed", err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}
