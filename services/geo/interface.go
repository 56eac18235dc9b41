package geo

import (
	"context"

	"meramarket/models"
)

// Service is the geo capability.
type Service interface {
	// Geohash encodes a point for storage alongside a record.
	Geohash(lat, lng float64) string
	// Cells returns geohash prefixes that together cover the circle. An empty
	// result means the provider does no coarse filtering.
	Cells(lat, lng, radiusKm float64) []string
	// Distance is the great-circle distance in kilometres.
	Distance(aLat, aLng, bLat, bLng float64) float64
	// Locate resolves a client IP to an approximate location.
	Locate(ctx context.Context, ip string) (*models.Location, error)
}
