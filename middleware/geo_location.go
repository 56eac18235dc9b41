package middleware

import (
	"meramarket/models"
	"meramarket/services/geo"
	"meramarket/services/integrations"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GeolocationMiddleware looks up the client's approximate location through
// the active geo provider and stores it in the context. Lookup failures never
// block the request.
func GeolocationMiddleware(registry *integrations.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := getClientIP(c)
		svc, err := integrations.Resolve[geo.Service](c.Request.Context(), registry, integrations.CategoryGeo)
		if err != nil {
			zap.L().Warn("Geo provider unavailable", zap.Error(err))
			c.Next()
			return
		}

		loc, err := svc.Locate(c.Request.Context(), ip)
		if err != nil {
			zap.L().Warn("Failed to locate client", zap.String("ip", ip), zap.Error(err))
			c.Next()
			return
		}
		c.Set(LocationKey, loc)
		c.Next()
	}
}

// ClientLocation returns the location found by GeolocationMiddleware.
func ClientLocation(c *gin.Context) *models.Location {
	if v, ok := c.Get(LocationKey); ok {
		if loc, ok := v.(*models.Location); ok {
			return loc
		}
	}
	return nil
}
