package handlers

import (
	"net/http"

	"meramarket/middleware"
	"meramarket/models"
	"meramarket/services/admin"
	"meramarket/services/billing"
	"meramarket/services/integrations"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler encapsulates elevated admin-level operations.
type AdminHandler struct {
	admin    *admin.Service
	billing  *billing.Service
	registry *integrations.Registry
}

func NewAdminHandler(adm *admin.Service, bill *billing.Service, registry *integrations.Registry) *AdminHandler {
	return &AdminHandler{admin: adm, billing: bill, registry: registry}
}

func (h *AdminHandler) StatsHandler(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to compute stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) UsersHandler(c *gin.Context) {
	var filters models.UserFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		badRequest(c, err)
		return
	}
	page, err := h.admin.Users(c.Request.Context(), filters, bindPage(c))
	if err != nil {
		respondError(c, "Failed to fetch users", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *AdminHandler) UpdateRoleHandler(c *gin.Context) {
	var req models.RoleChange
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.admin.UpdateRole(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Role)
	if err != nil {
		respondError(c, "Failed to update role", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) SuspendHandler(c *gin.Context) {
	var req models.SuspensionChange
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.admin.Suspend(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req)
	if err != nil {
		respondError(c, "Failed to update suspension", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) ListingQueueHandler(c *gin.Context) {
	page, err := h.admin.ListingQueue(c.Request.Context(), bindPage(c))
	if err != nil {
		respondError(c, "Failed to fetch listing queue", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *AdminHandler) RequirementQueueHandler(c *gin.Context) {
	page, err := h.admin.RequirementQueue(c.Request.Context(), bindPage(c))
	if err != nil {
		respondError(c, "Failed to fetch requirement queue", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *AdminHandler) ModerateListingHandler(c *gin.Context) {
	var d models.ModerationDecision
	if err := c.ShouldBindJSON(&d); err != nil {
		badRequest(c, err)
		return
	}
	l, err := h.admin.ModerateListing(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), d)
	if err != nil {
		respondError(c, "Failed to moderate listing", err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *AdminHandler) ModerateRequirementHandler(c *gin.Context) {
	var d models.ModerationDecision
	if err := c.ShouldBindJSON(&d); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.admin.ModerateRequirement(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), d)
	if err != nil {
		respondError(c, "Failed to moderate requirement", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *AdminHandler) HistoryHandler(c *gin.Context) {
	var filters models.HistoryFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		badRequest(c, err)
		return
	}
	page, err := h.admin.History(c.Request.Context(), filters, bindPage(c))
	if err != nil {
		respondError(c, "Failed to fetch moderation history", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *AdminHandler) PricingAuditHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"pricing": h.billing.Pricing(),
		"audit":   h.billing.PricingAudit(),
	})
}

func (h *AdminHandler) UpdatePricingHandler(c *gin.Context) {
	var upd models.PricingUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	pricing, err := h.billing.UpdatePricing(c.Request.Context(), middleware.CurrentUser(c), upd)
	if err != nil {
		respondError(c, "Failed to update pricing", err)
		return
	}
	c.JSON(http.StatusOK, pricing)
}

// IntegrationsHandler reports the active provider of every category.
func (h *AdminHandler) IntegrationsHandler(c *gin.Context) {
	status, err := h.registry.Status(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to read integrations", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mockMode": h.registry.MockOnly(), "categories": status})
}

// SetProviderHandler switches a category. A provider that lacks
// configuration leaves the category on mock and the response carries a
// warning.
func (h *AdminHandler) SetProviderHandler(c *gin.Context) {
	var req struct {
		Provider string `json:"provider" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	category, err := integrations.ParseCategory(c.Param("category"))
	if err != nil {
		respondError(c, "Unknown category", err)
		return
	}
	sel, err := h.registry.SetProvider(c.Request.Context(), category, req.Provider)
	if err != nil {
		respondError(c, "Failed to switch provider", err)
		return
	}
	getLogger(c).Info("Integration switched",
		zap.String("category", string(category)),
		zap.String("requested", sel.Requested),
		zap.String("active", sel.Active),
		zap.String("by", middleware.CurrentUser(c).ID))
	c.JSON(http.StatusOK, sel)
}
