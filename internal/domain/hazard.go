package domain

import "fmt"

// HazardZone is a circular or polygonal exclusion. Exclusionary zones
// hard-gate points inside them; otherwise the zone contributes a penalty of
// Severity score points at its center, decaying linearly to zero at its
// declared radius.
type HazardZone struct {
	Name         string     `json:"name"`
	Center       GeoPoint   `json:"center"`
	RadiusNm     float64    `json:"radiusNm,omitempty"`
	Polygon      []GeoPoint `json:"polygon,omitempty"` // when set, overrides the circle
	Severity     float64    `json:"severity"`
	Exclusionary bool       `json:"exclusionary"`
}

// Contains reports whether the point lies inside the zone.
func (z HazardZone) Contains(p GeoPoint) bool {
	if len(z.Polygon) >= 3 {
		return pointInPolygon(p, z.Polygon)
	}
	return DistanceNm(z.Center, p) <= z.RadiusNm
}

// Penalty returns the zone's score penalty at the point. Polygonal zones
// apply full severity inside and nothing outside; circular zones decay
// linearly from Severity at the center to zero at the radius.
func (z HazardZone) Penalty(p GeoPoint) float64 {
	if len(z.Polygon) >= 3 {
		if pointInPolygon(p, z.Polygon) {
			return z.Severity
		}
		return 0
	}
	if z.RadiusNm <= 0 {
		return 0
	}
	d := DistanceNm(z.Center, p)
	if d >= z.RadiusNm {
		return 0
	}
	return z.Severity * (1 - d/z.RadiusNm)
}

// pointInPolygon is a ray-casting test on raw lat/lon coordinates, adequate
// for the small zones used in planning (tens of nm, far from the poles).
func pointInPolygon(p GeoPoint, poly []GeoPoint) bool {
	inside := false
	j := len(poly) - 1
	for i := 0; i < len(poly); i++ {
		a, b := poly[i], poly[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) &&
			p.Lon < (b.Lon-a.Lon)*(p.Lat-a.Lat)/(b.Lat-a.Lat)+a.Lon {
			inside = !inside
		}
		j = i
	}
	return inside
}

// ConnectorRule is a named corridor between two points with a half-width.
// A mandatory corridor gates out every point beyond its width; a
// non-mandatory rule is an obstacle corridor that gates out points inside it.
type ConnectorRule struct {
	Name      string   `json:"name"`
	Start     GeoPoint `json:"start"`
	End       GeoPoint `json:"end"`
	WidthNm   float64  `json:"widthNm"`
	Mandatory bool     `json:"mandatory"`
}

// coversPoint reports whether the point lies within the corridor: inside the
// half-width of the great-circle segment, including the endpoint caps.
func (c ConnectorRule) coversPoint(p GeoPoint) bool {
	cross, along := crossTrackNm(c.Start, c.End, p)
	length := DistanceNm(c.Start, c.End)
	if along >= 0 && along <= length {
		return cross <= c.WidthNm
	}
	return DistanceNm(c.Start, p) <= c.WidthNm || DistanceNm(c.End, p) <= c.WidthNm
}

// VesselProfile holds operational limits and capabilities used to hard-gate
// or soft-penalize points. Zero limits fall back to planning defaults.
type VesselProfile struct {
	Name           string  `json:"name,omitempty"`
	DraftM         float64 `json:"draftM"`
	MinDepthM      float64 `json:"minDepthM,omitempty"` // required depth; defaults to draft
	MaxWaveHeightM float64 `json:"maxWaveHeightM,omitempty"`
	MaxWindKt      float64 `json:"maxWindKt,omitempty"`
	HasFlightDeck  bool    `json:"hasFlightDeck,omitempty"`
	HasNavalGun    bool    `json:"hasNavalGun,omitempty"`
	GunRangeNm     float64 `json:"gunRangeNm,omitempty"` // defaults to 13 nm with a gun
}

const (
	defaultMaxWaveHeightM = 2.0
	defaultMaxWindKt      = 35.0
)

func (v VesselProfile) minDepth() float64 {
	if v.MinDepthM > 0 {
		return v.MinDepthM
	}
	if v.DraftM > 0 {
		return v.DraftM
	}
	return 10
}

func (v VesselProfile) maxWave() float64 {
	if v.MaxWaveHeightM > 0 {
		return v.MaxWaveHeightM
	}
	return defaultMaxWaveHeightM
}

func (v VesselProfile) maxWind() float64 {
	if v.MaxWindKt > 0 {
		return v.MaxWindKt
	}
	return defaultMaxWindKt
}

func (v VesselProfile) gunRange() float64 {
	if !v.HasNavalGun {
		return 0
	}
	if v.GunRangeNm > 0 {
		return v.GunRangeNm
	}
	return DefaultRingSpacingNm
}

// Constraint is the hazard/connector/vessel verdict for one grid point.
type Constraint struct {
	Eligible bool     `json:"eligible"`
	Penalty  float64  `json:"penalty,omitempty"`
	Reasons  []string `json:"reasons,omitempty"`
}

// ApplyConstraints evaluates every grid point against hazard zones,
// connector rules, and vessel hard limits over its fused readings.
//
// A point is ineligible when it falls inside an exclusionary hazard or an
// obstacle corridor, outside every mandatory corridor, on land, or when a
// fused reading exceeds a vessel hard limit. Non-exclusionary hazards add
// their distance-decayed penalties instead. Missing readings never gate: a
// limit is only enforced against a present field.
func ApplyConstraints(grid []GridPoint, fused map[GridIndex]FusedReadings, zones []HazardZone, rules []ConnectorRule, vessel VesselProfile) map[GridIndex]Constraint {
	out := make(map[GridIndex]Constraint, len(grid))
	for _, gp := range grid {
		c := Constraint{Eligible: true}

		for _, z := range zones {
			if z.Exclusionary {
				if z.Contains(gp.GeoPoint) {
					c.Eligible = false
					c.Reasons = append(c.Reasons, fmt.Sprintf("inside exclusion zone %q", z.Name))
				}
				continue
			}
			c.Penalty += z.Penalty(gp.GeoPoint)
		}

		inMandatory, hasMandatory := false, false
		for _, r := range rules {
			if r.Mandatory {
				hasMandatory = true
				if r.coversPoint(gp.GeoPoint) {
					inMandatory = true
				}
				continue
			}
			if r.coversPoint(gp.GeoPoint) {
				c.Eligible = false
				c.Reasons = append(c.Reasons, fmt.Sprintf("inside obstacle corridor %q", r.Name))
			}
		}
		if hasMandatory && !inMandatory {
			c.Eligible = false
			c.Reasons = append(c.Reasons, "outside mandatory corridor")
		}

		readings := fused[gp.Index]
		if land, ok := readings[SourceBathymetry].Field(FieldLand); ok && land > 0 {
			c.Eligible = false
			c.Reasons = append(c.Reasons, "point is on land")
		}
		if depth, ok := readings[SourceBathymetry].Field(FieldDepthM); ok && depth < vessel.minDepth() {
			c.Eligible = false
			c.Reasons = append(c.Reasons, fmt.Sprintf("depth %.1f m below vessel minimum %.1f m", depth, vessel.minDepth()))
		}
		if wave, ok := readings[SourceMarine].Field(FieldWaveHeightM); ok && wave > vessel.maxWave() {
			c.Eligible = false
			c.Reasons = append(c.Reasons, fmt.Sprintf("wave height %.1f m above vessel limit %.1f m", wave, vessel.maxWave()))
		}
		if wind, ok := readings[SourceWeather].Field(FieldWindSpeedKt); ok && wind > vessel.maxWind() {
			c.Eligible = false
			c.Reasons = append(c.Reasons, fmt.Sprintf("wind %.1f kt above vessel limit %.1f kt", wind, vessel.maxWind()))
		}

		out[gp.Index] = c
	}
	return out
}
