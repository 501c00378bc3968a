// Package geofence evaluates a position against the active no-fly zones.
package geofence

import (
	"github.com/skywatch/skywatch/internal/geo"
	"github.com/skywatch/skywatch/internal/zone"
)

// ReasonNoFlyZone is the fixed, zone-agnostic reason reported on any
// geofence match. Stored fixtures depend on this exact string; it
// deliberately does not embed the zone name or id.
const ReasonNoFlyZone = "entered_no_fly_zone"

// Check returns ReasonNoFlyZone when the point (lat, lon) is contained in
// any of the given zones, or an empty string otherwise. Zones are evaluated
// in slice order and the first containment wins. Callers pass the set of
// currently active zones; Check does not filter on Active itself.
//
// Circle zones with missing center or radius are skipped rather than
// treated as errors.
func Check(lat, lon float64, zones []zone.Zone) string {
	for _, z := range zones {
		switch z.Shape {
		case zone.ShapeCircle:
			if z.CenterLat == nil || z.CenterLon == nil || z.RadiusKm == nil {
				continue
			}
			if geo.DistanceKm(lat, lon, *z.CenterLat, *z.CenterLon) <= *z.RadiusKm {
				return ReasonNoFlyZone
			}

		case zone.ShapePolygon:
			if geo.PointInPolygon(lon, lat, z.Ring) {
				return ReasonNoFlyZone
			}
		}
	}
	return ""
}
