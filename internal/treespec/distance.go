package treespec

import (
	"math"

	"github.com/verdantlab/ranger/internal/models"
)

const earthRadiusMeters = 6371000

// DistanceMeters returns the haversine distance between two coordinates.
// Update submissions record the distance between the photo location and the
// tree's registered coordinate for diagnostics.
func DistanceMeters(a, b models.Geocoordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Coordinate converts a scaled spec coordinate back to a device coordinate.
func Coordinate(c ScaledCoordinate) models.Geocoordinate {
	return models.Geocoordinate{
		Latitude:  float64(c.Latitude) / coordinateScale,
		Longitude: float64(c.Longitude) / coordinateScale,
	}
}
