package handlers

import (
	"net/http"

	"meramarket/middleware"
	"meramarket/models"
	"meramarket/services/admin"

	"github.com/gin-gonic/gin"
)

type PolicyHandler struct {
	admin *admin.Service
}

func NewPolicyHandler(adm *admin.Service) *PolicyHandler {
	return &PolicyHandler{admin: adm}
}

// PoliciesHandler lists the policies visible to the caller; admins also see
// the moderation guidelines.
func (h *PolicyHandler) PoliciesHandler(c *gin.Context) {
	role := models.RoleUser
	if user := middleware.CurrentUser(c); user.IsAdmin() {
		role = models.RoleAdmin
	}
	c.JSON(http.StatusOK, h.admin.PoliciesFor(role))
}
