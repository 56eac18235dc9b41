package handlers

import (
	"net/http"
	"strconv"

	"meramarket/middleware"
	"meramarket/services/geo"
	"meramarket/services/integrations"
	"meramarket/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GeoHandler exposes the active geo provider.
type GeoHandler struct {
	registry *integrations.Registry
}

func NewGeoHandler(registry *integrations.Registry) *GeoHandler {
	return &GeoHandler{registry: registry}
}

func (h *GeoHandler) service(c *gin.Context) (geo.Service, bool) {
	svc, err := integrations.Resolve[geo.Service](c.Request.Context(), h.registry, integrations.CategoryGeo)
	if err != nil {
		getLogger(c).Error("Geo provider unavailable", zap.Error(err))
		utils.JSONError(c, http.StatusServiceUnavailable, "Location services are unavailable", err.Error())
		return nil, false
	}
	return svc, true
}

// LocateHandler returns the caller's approximate location.
func (h *GeoHandler) LocateHandler(c *gin.Context) {
	if loc := middleware.ClientLocation(c); loc != nil {
		c.JSON(http.StatusOK, loc)
		return
	}
	svc, ok := h.service(c)
	if !ok {
		return
	}
	loc, err := svc.Locate(c.Request.Context(), middleware.ClientIP(c))
	if err != nil {
		respondError(c, "Failed to locate client", err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// DistanceHandler returns the distance in km between (lat1,lng1) and
// (lat2,lng2).
func (h *GeoHandler) DistanceHandler(c *gin.Context) {
	var coords [4]float64
	for i, key := range []string{"lat1", "lng1", "lat2", "lng2"} {
		v, err := strconv.ParseFloat(c.Query(key), 64)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid coordinates", key+" must be a number")
			return
		}
		coords[i] = v
	}
	svc, ok := h.service(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"distanceKm": svc.Distance(coords[0], coords[1], coords[2], coords[3])})
}

// GeohashHandler encodes ?lat=&lng= and lists the cells covering ?radius= km.
func (h *GeoHandler) GeohashHandler(c *gin.Context) {
	near, err := bindNear(c)
	if err != nil || near == nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid coordinates", "lat and lng are required")
		return
	}
	svc, ok := h.service(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"geohash": svc.Geohash(near.Lat, near.Lng),
		"cells":   svc.Cells(near.Lat, near.Lng, near.RadiusKm),
	})
}
