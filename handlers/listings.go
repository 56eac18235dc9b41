package handlers

import (
	"net/http"

	"meramarket/middleware"
	"meramarket/models"
	"meramarket/services/interest"
	"meramarket/services/listings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListingHandler serves the public catalogue and sellers' listing management.
type ListingHandler struct {
	listings  *listings.Service
	interests *interest.Service
}

func NewListingHandler(list *listings.Service, interests *interest.Service) *ListingHandler {
	return &ListingHandler{listings: list, interests: interests}
}

func (h *ListingHandler) CategoriesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.listings.Categories())
}

// ListHandler returns active listings. Sellers see their own
// listings in every status through MyListingsHandler.
func (h *ListingHandler) ListHandler(c *gin.Context) {
	var filters models.ListingFilters
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
	filters.Status = models.ListingActive
	filters.SellerID = ""

	page, err := h.listings.List(c.Request.Context(), filters, bindPage(c))
	if err != nil {
		respondError(c, "Failed to list listings", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ListingHandler) MyListingsHandler(c *gin.Context) {
	user := middleware.CurrentUser(c)
	filters := models.ListingFilters{
		SellerID: user.ID,
		Status:   models.ListingStatus(c.Query("status")),
	}
	page, err := h.listings.List(c.Request.Context(), filters, bindPage(c))
	if err != nil {
		respondError(c, "Failed to list your listings", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetHandler returns a listing as the caller may see it and counts a view.
func (h *ListingHandler) GetHandler(c *gin.Context) {
	view, err := h.interests.ListingView(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to fetch listing", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ListingHandler) CreateHandler(c *gin.Context) {
	var in models.ListingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if in.Location.Lat == 0 && in.Location.Lng == 0 {
		if loc := middleware.ClientLocation(c); loc != nil {
			in.Location = *loc
		}
	}
	listing, err := h.listings.Create(c.Request.Context(), middleware.CurrentUser(c), in)
	if err != nil {
		respondError(c, "Failed to create listing", err)
		return
	}
	getLogger(c).Info("Listing created", zap.String("listingId", listing.ID))
	c.JSON(http.StatusCreated, listing)
}

func (h *ListingHandler) UpdateHandler(c *gin.Context) {
	var upd models.ListingUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	listing, err := h.listings.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), upd)
	if err != nil {
		respondError(c, "Failed to update listing", err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *ListingHandler) DeleteHandler(c *gin.Context) {
	if err := h.listings.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		respondError(c, "Failed to delete listing", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PublishHandler submits a draft for payment and review.
func (h *ListingHandler) PublishHandler(c *gin.Context) {
	listing, err := h.listings.Publish(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to publish listing", err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *ListingHandler) MarkSoldHandler(c *gin.Context) {
	listing, err := h.listings.MarkSold(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to mark listing as sold", err)
		return
	}
	c.JSON(http.StatusOK, listing)
}
