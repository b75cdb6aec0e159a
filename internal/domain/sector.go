package domain

import (
	"errors"
	"fmt"
	"math"
)

// DefaultRingSpacingNm is the planning-factor ring spacing: the range of a
// 5-inch naval gun, 13 nm.
const DefaultRingSpacingNm = 13.0

// ErrInvalidSector marks geometry parameters that cannot produce a grid.
// Geometry errors are fatal and reported before any network call.
var ErrInvalidSector = errors.New("invalid sector")

// Sector is an angular wedge of ocean: origin, center bearing, half-angle
// (total span ≤180°), and radius. RingSpacingNm defaults to
// DefaultRingSpacingNm when zero.
type Sector struct {
	Origin        GeoPoint `json:"origin"`
	CenterBearing float64  `json:"centerBearing"`
	HalfAngle     float64  `json:"halfAngle"`
	RadiusNm      float64  `json:"radiusNm"`
	RingSpacingNm float64  `json:"ringSpacingNm,omitempty"`
}

// GridIndex is a grid point's stable (ring, angular) position, ordered
// lexicographically for deterministic iteration and join tie-breaks.
type GridIndex struct {
	Ring    int `json:"ring"`
	Angular int `json:"angular"`
}

// Less reports lexicographic order on (ring, angular).
func (i GridIndex) Less(o GridIndex) bool {
	if i.Ring != o.Ring {
		return i.Ring < o.Ring
	}
	return i.Angular < o.Angular
}

// GridPoint is a sampled location within a sector. Immutable once generated;
// grid points do not outlive a planning run.
type GridPoint struct {
	Index GridIndex `json:"index"`
	GeoPoint
}

func (s Sector) spacing() float64 {
	if s.RingSpacingNm == 0 {
		return DefaultRingSpacingNm
	}
	return s.RingSpacingNm
}

// Validate checks geometry parameters, wrapping ErrInvalidSector with the
// offending value.
func (s Sector) Validate() error {
	switch {
	case s.HalfAngle < 0 || s.HalfAngle > 90:
		return fmt.Errorf("%w: half-angle %.1f° outside [0, 90]", ErrInvalidSector, s.HalfAngle)
	case s.RadiusNm <= 0:
		return fmt.Errorf("%w: radius %.1f nm must be positive", ErrInvalidSector, s.RadiusNm)
	case s.spacing() <= 0:
		return fmt.Errorf("%w: ring spacing %.1f nm must be positive", ErrInvalidSector, s.RingSpacingNm)
	case s.Origin.Lat < -90 || s.Origin.Lat > 90:
		return fmt.Errorf("%w: origin latitude %.4f outside [-90, 90]", ErrInvalidSector, s.Origin.Lat)
	}
	return nil
}

// GridPoints generates the sector's sample grid in deterministic
// (ring, angular) order.
//
// Rings lie at multiples of the ring spacing; when the radius is not an
// exact multiple, a boundary ring is added at exactly the radius so the full
// radius is covered (round-up policy). Ring 0 is the origin itself. Within a
// ring, the angular step is sized so the arc length between adjacent points
// is approximately one ring spacing, sweeping from centerBearing-halfAngle
// to centerBearing+halfAngle inclusive of both endpoints. A zero half-angle
// degenerates to a single bearing line.
func (s Sector) GridPoints() ([]GridPoint, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	spacing := s.spacing()
	points := []GridPoint{{Index: GridIndex{Ring: 0, Angular: 0}, GeoPoint: s.Origin}}

	for ring, r := range s.ringRadii() {
		sweep := 2 * s.HalfAngle
		steps := 1
		if sweep > 0 {
			arcNm := r * degToRad(sweep)
			steps = int(math.Round(arcNm / spacing))
			if steps < 1 {
				steps = 1
			}
		}

		if sweep == 0 {
			points = append(points, GridPoint{
				Index:    GridIndex{Ring: ring + 1, Angular: 0},
				GeoPoint: Destination(s.Origin, s.CenterBearing, r),
			})
			continue
		}

		step := sweep / float64(steps)
		for a := 0; a <= steps; a++ {
			bearing := normalizeBearing(s.CenterBearing - s.HalfAngle + float64(a)*step)
			points = append(points, GridPoint{
				Index:    GridIndex{Ring: ring + 1, Angular: a},
				GeoPoint: Destination(s.Origin, bearing, r),
			})
		}
	}

	return points, nil
}

// ringRadii lists ring distances from the origin, excluding ring 0 and
// including the boundary ring when the radius is not a spacing multiple.
func (s Sector) ringRadii() []float64 {
	spacing := s.spacing()
	var radii []float64
	for r := spacing; r < s.RadiusNm || almostEqual(r, s.RadiusNm); r += spacing {
		radii = append(radii, math.Min(r, s.RadiusNm))
	}
	if len(radii) == 0 || !almostEqual(radii[len(radii)-1], s.RadiusNm) {
		radii = append(radii, s.RadiusNm)
	}
	return radii
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
