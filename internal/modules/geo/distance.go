package geo

import (
	"fmt"
	"math"

	"agri-supply/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// ValidateCoordinates checks that lat/lon are finite and within WGS84 bounds.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return fmt.Errorf("%w: non-finite value (%v, %v)", models.ErrInvalidCoordinates, lat, lon)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", models.ErrInvalidCoordinates, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", models.ErrInvalidCoordinates, lon)
	}
	return nil
}

// DistanceKm returns the great-circle distance between two points in kilometres.
func DistanceKm(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if err := ValidateCoordinates(lat1, lon1); err != nil {
		return 0, err
	}
	if err := ValidateCoordinates(lat2, lon2); err != nil {
		return 0, err
	}

	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Clamp: rounding can push a marginally above 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a)), nil
}

// PointDistanceKm is DistanceKm over two route points; both must carry coordinates.
func PointDistanceKm(a, b models.GeoPoint) (float64, error) {
	if !a.Routable() || !b.Routable() {
		return 0, fmt.Errorf("%w: missing coordinate", models.ErrInvalidCoordinates)
	}
	return DistanceKm(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude)
}
