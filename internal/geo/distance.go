// Package geo provides great-circle distance and small geometry helpers.
package geo

import (
	"math"

	"github.com/twpayne/go-geom"
)

// EarthRadiusKM is the mean Earth radius used for great-circle distance.
const EarthRadiusKM = 6371.0

// DegreesPerKM is an approximate conversion factor for latitude degrees to
// kilometers. At mid-latitudes, 1 degree of latitude is approximately 111 km.
const DegreesPerKM = 1.0 / 111.0

// DistanceKM returns the great-circle (haversine) distance in kilometers
// between two lat/lng pairs.
func DistanceKM(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}

// DistanceM returns the haversine distance in meters.
func DistanceM(lat1, lng1, lat2, lng2 float64) float64 {
	return DistanceKM(lat1, lng1, lat2, lng2) * 1000
}

// CellPolygon builds a closed rectangle polygon (lng/lat order) from cell
// bounds [min_lng, min_lat, max_lng, max_lat].
func CellPolygon(bounds [4]float64) *geom.Polygon {
	minLng, minLat, maxLng, maxLat := bounds[0], bounds[1], bounds[2], bounds[3]
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{minLng, minLat},
		{maxLng, minLat},
		{maxLng, maxLat},
		{minLng, maxLat},
		{minLng, minLat},
	}})
}

// Centroid returns the mean lat/lng of the given coordinate pairs.
// Adequate for the cluster radii involved here; not valid across the
// antimeridian.
func Centroid(lats, lngs []float64) (lat, lng float64) {
	if len(lats) == 0 {
		return 0, 0
	}
	for i := range lats {
		lat += lats[i]
		lng += lngs[i]
	}
	n := float64(len(lats))
	return lat / n, lng / n
}
