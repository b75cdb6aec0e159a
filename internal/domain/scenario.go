package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// SunTimes is best-effort astronomical enrichment for the origin.
type SunTimes struct {
	Sunrise time.Time `json:"sunrise"`
	Sunset  time.Time `json:"sunset"`
}

// RunDiagnostics surfaces per-run data-quality degradation. These are
// warnings, never fatal: scoring always completes with whatever arrived.
type RunDiagnostics struct {
	SourcesUnavailable []SourceKind       `json:"sourcesUnavailable,omitempty"`
	JoinFailures       map[SourceKind]int `json:"joinFailures,omitempty"`
	// MissingCriteria counts points where each criterion was excluded
	// from the weighted sum for missing inputs.
	MissingCriteria map[string]int `json:"missingCriteria,omitempty"`
	PointsTotal     int            `json:"pointsTotal"`
	PointsEligible  int            `json:"pointsEligible"`
	PointsLand      int            `json:"pointsLand"`
}

// Scenario is the serializable record of one planning run: all inputs plus
// the ordered scored points, for rendering and optional persistence.
type Scenario struct {
	RunID       string          `json:"runId"`
	Mission     string          `json:"mission"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Sector      Sector          `json:"sector"`
	Weights     MissionWeights  `json:"missionWeights"`
	Vessel      VesselProfile   `json:"vesselProfile"`
	Hazards     []HazardZone    `json:"hazards"`
	Connectors  []ConnectorRule `json:"connectors"`
	Target      *GeoPoint       `json:"target,omitempty"`
	Window      TimeWindow      `json:"timeWindow,omitzero"`
	Sun         *SunTimes       `json:"sun,omitempty"`
	Scored      []ScoredPoint   `json:"scoredPoints"`
	Diagnostics RunDiagnostics  `json:"diagnostics"`
}

// NewRunID derives a deterministic run identifier from the run's geometry,
// mission, and time window, so replaying identical inputs produces the same
// ID downstream.
func NewRunID(sector Sector, mission string, window TimeWindow) string {
	input := fmt.Sprintf("%.6f,%.6f|%.2f|%.2f|%.2f|%.2f|%s|%d|%d",
		sector.Origin.Lat, sector.Origin.Lon,
		sector.CenterBearing, sector.HalfAngle, sector.RadiusNm, sector.spacing(),
		mission, window.Start.Unix(), window.End.Unix(),
	)
	hash := sha256.Sum256([]byte(input))
	return "run-" + hex.EncodeToString(hash[:8])
}

// BuildDiagnostics folds fusion results, constraints, and breakdowns into
// the run's diagnostic summary.
func BuildDiagnostics(scored []ScoredPoint, fusion FusionDiagnostics, unavailable []SourceKind) RunDiagnostics {
	d := RunDiagnostics{
		SourcesUnavailable: unavailable,
		JoinFailures:       fusion.JoinFailures,
		MissingCriteria:    make(map[string]int),
		PointsTotal:        len(scored),
	}
	for _, sp := range scored {
		if sp.Eligible {
			d.PointsEligible++
		}
		if land, ok := sp.Readings[SourceBathymetry].Field(FieldLand); ok && land > 0 {
			d.PointsLand++
		}
		for name, cs := range sp.Breakdown {
			if !cs.Available {
				d.MissingCriteria[name]++
			}
		}
	}
	return d
}

// Stamp fills GeneratedAt from the package clock.
func (s *Scenario) Stamp() {
	s.GeneratedAt = clock.Now().UTC()
}
