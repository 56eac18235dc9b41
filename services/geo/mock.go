package geo

import (
	"context"

	"meramarket/models"

	"github.com/mmcloughlin/geohash"
)

// DefaultLocation is where every client is placed by the mock provider.
var DefaultLocation = models.Location{
	Lat:     28.6139,
	Lng:     77.2090,
	Address: "Connaught Place",
	City:    "New Delhi",
	State:   "Delhi",
	Pincode: "110001",
}

// MockService resolves every client to DefaultLocation and does no coarse
// cell filtering.
type MockService struct{}

func NewMockService() *MockService {
	return &MockService{}
}

func (MockService) Geohash(lat, lng float64) string {
	return geohash.EncodeWithPrecision(lat, lng, hashPrecision)
}

func (MockService) Cells(lat, lng, radiusKm float64) []string {
	return nil
}

func (MockService) Distance(aLat, aLng, bLat, bLng float64) float64 {
	return Haversine(aLat, aLng, bLat, bLng)
}

func (MockService) Locate(_ context.Context, _ string) (*models.Location, error) {
	loc := DefaultLocation
	loc.Geohash = geohash.EncodeWithPrecision(loc.Lat, loc.Lng, hashPrecision)
	return &loc, nil
}
