// Package zone defines no-fly zone entities and their shape invariants.
// A zone is either a circle or a polygon; exactly one shape's fields may be
// populated, and that is enforced when a zone is created or updated, not at
// evaluation time.
package zone

import (
	"errors"
	"fmt"
	"time"
)

const (
	ShapeCircle  Shape = "circle"
	ShapePolygon Shape = "polygon"
)

type Shape string

// ErrInvalid marks zone validation failures. Callers can match it with
// errors.Is to distinguish bad input from storage errors.
var ErrInvalid = errors.New("invalid zone")

// Zone is a restricted airspace region. Circle zones use CenterLat,
// CenterLon and RadiusKm; polygon zones use Ring, an ordered sequence of
// [lon, lat] vertices (GeoJSON axis order), open or closed.
type Zone struct {
	ID        int64
	Name      string
	Shape     Shape
	CenterLat *float64
	CenterLon *float64
	RadiusKm  *float64
	Ring      [][2]float64
	Active    bool
	CreatedAt time.Time
}

// Validate enforces the exactly-one-shape invariant and coordinate ranges.
// It returns an error wrapping ErrInvalid when the zone must not be
// persisted.
func (z *Zone) Validate() error {
	if z.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}

	switch z.Shape {
	case ShapeCircle:
		if z.CenterLat == nil || z.CenterLon == nil || z.RadiusKm == nil {
			return fmt.Errorf("%w: circle requires centerLat, centerLon and radiusKm", ErrInvalid)
		}
		if len(z.Ring) != 0 {
			return fmt.Errorf("%w: circle must not carry polygon vertices", ErrInvalid)
		}
		if *z.RadiusKm <= 0 {
			return fmt.Errorf("%w: radiusKm must be > 0, got %g", ErrInvalid, *z.RadiusKm)
		}
		if err := checkLatLon(*z.CenterLat, *z.CenterLon); err != nil {
			return err
		}

	case ShapePolygon:
		if z.CenterLat != nil || z.CenterLon != nil || z.RadiusKm != nil {
			return fmt.Errorf("%w: polygon must not carry circle fields", ErrInvalid)
		}
		if len(z.Ring) < 3 {
			return fmt.Errorf("%w: polygon requires at least 3 vertices, got %d", ErrInvalid, len(z.Ring))
		}
		for i, v := range z.Ring {
			if err := checkLatLon(v[1], v[0]); err != nil {
				return fmt.Errorf("vertex %d: %w", i, err)
			}
		}

	default:
		return fmt.Errorf("%w: unknown shape %q", ErrInvalid, z.Shape)
	}

	return nil
}

func checkLatLon(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %g out of range [-90, 90]", ErrInvalid, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %g out of range [-180, 180]", ErrInvalid, lon)
	}
	return nil
}
