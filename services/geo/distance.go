package geo

import "math"

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance between two points in km.
func Haversine(aLat, aLng, bLat, bLng float64) float64 {
	dLat := radians(bLat - aLat)
	dLng := radians(bLng - aLng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(aLat))*math.Cos(radians(bLat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
