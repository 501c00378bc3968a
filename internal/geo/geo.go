// Package geo provides the geodesic primitives used by geofence evaluation:
// great-circle distance and point-in-polygon containment.
package geo

import "math"

// Mean Earth radius (IUGG), kilometres.
const earthRadiusKm = 6371.0088

// DistanceKm returns the great-circle distance in kilometres between two
// points given in decimal degrees, using the haversine formula on a
// spherical Earth. It is symmetric and returns 0 for identical coordinates.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)

	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// PointInPolygon reports whether the point (lon, lat) lies inside the ring
// using the ray-casting algorithm. The ring is an ordered sequence of
// [lon, lat] vertices and may be open or closed; an open ring is treated as
// implicitly closed. Rings with fewer than 3 vertices never contain anything.
// Points exactly on an edge or vertex may land on either side.
func PointInPolygon(lon, lat float64, ring [][2]float64) bool {
	if len(ring) < 3 {
		return false
	}

	pts := ring
	if pts[0] != pts[len(pts)-1] {
		pts = append(append(make([][2]float64, 0, len(ring)+1), ring...), ring[0])
	}

	inside := false
	for i := 0; i < len(pts)-1; i++ {
		x1, y1 := pts[i][0], pts[i][1]
		x2, y2 := pts[i+1][0], pts[i+1][1]

		// Edge must strictly straddle the horizontal ray at lat;
		// y2 != y1 is guaranteed when it does.
		if (y1 > lat) != (y2 > lat) {
			xIntersect := x1 + (x2-x1)*(lat-y1)/(y2-y1)
			if xIntersect > lon {
				inside = !inside
			}
		}
	}

	return inside
}
