package handlers

import (
	"net/http"

	"meramarket/middleware"
	"meramarket/models"
	"meramarket/services/payments"
	"meramarket/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentHandler exposes the payment ledger. Users see their own payments;
// admins see everything and may refund.
type PaymentHandler struct {
	payments *payments.Service
}

func NewPaymentHandler(pay *payments.Service) *PaymentHandler {
	return &PaymentHandler{payments: pay}
}

func (h *PaymentHandler) MethodsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"methods": h.payments.Methods()})
}

func (h *PaymentHandler) ListHandler(c *gin.Context) {
	var filters models.PaymentFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		badRequest(c, err)
		return
	}
	if user := middleware.CurrentUser(c); !user.IsAdmin() {
		filters.UserID = user.ID
	}
	page, err := h.payments.Query(c.Request.Context(), filters, bindPage(c))
	if err != nil {
		respondError(c, "Failed to list payments", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *PaymentHandler) GetHandler(c *gin.Context) {
	p, err := h.payments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to fetch payment", err)
		return
	}
	if user := middleware.CurrentUser(c); !user.IsAdmin() && p.UserID != user.ID {
		utils.JSONError(c, http.StatusNotFound, "Failed to fetch payment", payments.ErrNotFound.Error())
		return
	}
	c.JSON(http.StatusOK, p)
}

// RefundHandler refunds a completed payment. Admin only.
func (h *PaymentHandler) RefundHandler(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.payments.Refund(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, "Refund failed", err)
		return
	}
	getLogger(c).Info("Payment refunded",
		zap.String("paymentId", p.ID),
		zap.String("by", middleware.CurrentUser(c).ID))
	c.JSON(http.StatusOK, p)
}
