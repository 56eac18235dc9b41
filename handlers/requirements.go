package handlers

import (
	"net/http"

	"meramarket/middleware"
	"meramarket/models"
	"meramarket/services/listings"

	"github.com/gin-gonic/gin"
)

// RequirementHandler serves buyers' "wanted" posts.
type RequirementHandler struct {
	listings *listings.Service
}

func NewRequirementHandler(list *listings.Service) *RequirementHandler {
	return &RequirementHandler{listings: list}
}

func (h *RequirementHandler) ListHandler(c *gin.Context) {
	var filters models.RequirementFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		badRequest(c, err)
		return
	}
	near, err := bindNear(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	filters.Near = near
	if filters.Status == "" {
		filters.Status = models.RequirementActive
	}

	page, err := h.listings.ListRequirements(c.Request.Context(), filters, bindPage(c))
	if err != nil {
		respondError(c, "Failed to list requirements", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *RequirementHandler) MyRequirementsHandler(c *gin.Context) {
	filters := models.RequirementFilters{
		UserID: middleware.CurrentUser(c).ID,
		Status: models.RequirementStatus(c.Query("status")),
	}
	page, err := h.listings.ListRequirements(c.Request.Context(), filters, bindPage(c))
	if err != nil {
		respondError(c, "Failed to list your requirements", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *RequirementHandler) GetHandler(c *gin.Context) {
	req, err := h.listings.GetRequirement(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to fetch requirement", err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *RequirementHandler) CreateHandler(c *gin.Context) {
	var in models.RequirementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if in.Location.Lat == 0 && in.Location.Lng == 0 {
		if loc := middleware.ClientLocation(c); loc != nil {
			in.Location = *loc
		}
	}
	req, err := h.listings.CreateRequirement(c.Request.Context(), middleware.CurrentUser(c), in)
	if err != nil {
		respondError(c, "Failed to create requirement", err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *RequirementHandler) UpdateHandler(c *gin.Context) {
	var upd models.RequirementUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	req, err := h.listings.UpdateRequirement(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), upd)
	if err != nil {
		respondError(c, "Failed to update requirement", err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *RequirementHandler) DeleteHandler(c *gin.Context) {
	if err := h.listings.DeleteRequirement(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		respondError(c, "Failed to delete requirement", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CloseHandler marks a requirement fulfilled or cancelled.
func (h *RequirementHandler) CloseHandler(c *gin.Context) {
	var req struct {
		Status models.RequirementStatus `json:"status" binding:"required,oneof=fulfilled cancelled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	out, err := h.listings.CloseRequirement(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, "Failed to close requirement", err)
		return
	}
	c.JSON(http.StatusOK, out)
}
