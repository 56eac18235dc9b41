package handlers

import (
	"net/http"

	"meramarket/utils"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	appName string
}

func NewHealthHandler(appName string) *HealthHandler {
	return &HealthHandler{appName: appName}
}

// HealthHandler reports the last provider health snapshot. The status code
// is always 200; a failing check only turns the status to "degraded".
func (h *HealthHandler) HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	state := "ok"
	if !status.Healthy() {
		state = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  state,
		"message": "Hi, I'm " + h.appName,
		"checks":  status,
	})
}
